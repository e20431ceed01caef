// chika-stub is a self-contained development backend: the REST surface,
// room channels, and a canned AI responder, so the client can be exercised
// without any real provider credentials.
package main

import (
	"fmt"
	"log"

	"chika/internal/config"
	"chika/internal/stub"
)

func main() {
	cfg, err := config.LoadStubConfig()
	if err != nil {
		log.Fatal(err)
	}

	deps := stub.Deps{
		Store: stub.NewStore(),
		OAuth: stub.NewOAuth(stub.StateConfig{
			Secret: cfg.StateSecret,
			Expiry: cfg.StateExpiry,
		}),
		Hub:       stub.NewHub(),
		Providers: cfg.Providers,
	}

	router := stub.NewRouter(deps)
	log.Printf("listening on %s", fmt.Sprintf(":%d", cfg.Port))
	log.Fatal(stub.Run(cfg, router))
}
