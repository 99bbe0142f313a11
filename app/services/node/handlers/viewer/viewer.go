// Package viewer serves a single page that streams the node's events.
package viewer

import (
	"context"
	_ "embed"
	"net/http"

	"github.com/ardanlabs/gossipchain/foundation/web"
)

//go:embed assets/index.html
var index []byte

// Routes binds the viewer page to the root of the app.
func Routes(app *web.App) {
	app.Handle(http.MethodGet, "", "/", handler)
}

func handler(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	web.SetStatusCode(ctx, http.StatusOK)
	w.WriteHeader(http.StatusOK)

	_, err := w.Write(index)
	return err
}
