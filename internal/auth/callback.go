package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	apierrors "github.com/diogo/docchat/internal/errors"
)

const callbackPage = "Signed in to docchat. You can close this tab and return to the terminal.\n"

type callbackResult struct {
	code string
	err  error
}

// callbackServer receives the hosted UI redirect on a loopback listener
type callbackServer struct {
	srv     *http.Server
	results chan callbackResult
}

func newCallbackServer(ln net.Listener, path, state string) *callbackServer {
	if path == "" {
		path = "/"
	}
	cb := &callbackServer{results: make(chan callbackResult, 1)}

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		// a root callback path also sees favicon fetches; ignore anything that is not a redirect
		if q.Get("code") == "" && q.Get("error") == "" && q.Get("state") == "" {
			http.NotFound(w, r)
			return
		}

		var res callbackResult
		switch {
		case q.Get("error") != "":
			res.err = apierrors.NewAuthError(fmt.Sprintf("%s: %s", q.Get("error"), q.Get("error_description")))
		case q.Get("state") != state:
			res.err = apierrors.NewAuthError("sign-in state mismatch")
		case q.Get("code") == "":
			res.err = apierrors.NewAuthError("sign-in redirect has no code")
		default:
			res.code = q.Get("code")
		}

		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			fmt.Fprint(w, callbackPage)
		}

		// first answer wins
		select {
		case cb.results <- res:
		default:
		}
	})

	cb.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		_ = cb.srv.Serve(ln)
	}()
	return cb
}

// Results delivers the outcome of the first redirect
func (cb *callbackServer) Results() <-chan callbackResult {
	return cb.results
}

// Close stops the server and its listener
func (cb *callbackServer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = cb.srv.Shutdown(ctx)
}
