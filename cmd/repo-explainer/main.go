// Command repo-explainer serves the Repo Explainer web app and API.
//
//	repo-explainer serve              # HTTP server on $PORT
//	repo-explainer migrate            # create tables in $DATABASE_URL
//	repo-explainer explain <url>      # one-shot explanation in the terminal
package main

import "github.com/sakif/repo-explainer/internal/cli"

func main() {
	cli.Execute()
}
