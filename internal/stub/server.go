package stub

import (
	"fmt"
	"net/http"
	"time"

	"chika/internal/config"
)

func NewHTTPServer(cfg config.StubConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func Run(cfg config.StubConfig, handler http.Handler) error {
	return NewHTTPServer(cfg, handler).ListenAndServe()
}
