package main

import (
	"flag"

	log "github.com/sirupsen/logrus"

	"github.com/langdock/gateway-core/internal/mockprovider"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	addr := flag.String("addr", ":8001", "listen address")
	flag.Parse()

	r := mockprovider.NewRouter()

	log.WithField("addr", *addr).Info("mock-provider: listening")
	if err := r.Run(*addr); err != nil {
		log.WithError(err).Fatal("mock-provider: server exited with error")
	}
}
