package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/statueshop/lib/myconfig"
	"github.com/MarcGrol/statueshop/lib/myhttp"
	"github.com/MarcGrol/statueshop/lib/mylog"
	"github.com/MarcGrol/statueshop/lib/mypublisher"
	"github.com/MarcGrol/statueshop/lib/mypubsub"
	"github.com/MarcGrol/statueshop/lib/mystore"
	"github.com/MarcGrol/statueshop/lib/mytime"
	"github.com/MarcGrol/statueshop/lib/myuuid"
	"github.com/MarcGrol/statueshop/services/checkoutstripe"
	"github.com/MarcGrol/statueshop/services/health"
	"github.com/MarcGrol/statueshop/services/orderevents"
	"github.com/MarcGrol/statueshop/services/orderledger"
)

func main() {
	c := context.Background()
	logger := mylog.New("main")

	cfg, err := myconfig.Load(".env")
	if err != nil {
		log.Fatalf("Error loading configuration: %s", err)
	}
	for _, w := range cfg.Warnings() {
		logger.Log(c, "", mylog.SeverityWarn, "%s", w)
	}

	router := mux.NewRouter()

	nower := mytime.RealNower{}
	uuider := myuuid.RealUUIDer{}

	ledger, ledgerCleanup, err := orderledger.NewFromEnvironment(c, nower)
	if err != nil {
		log.Fatalf("Error creating order ledger: %s", err)
	}
	defer ledgerCleanup()

	processedStore, processedCleanup, err := mystore.New[checkoutstripe.ProcessedEvent](c)
	if err != nil {
		log.Fatalf("Error creating processed-event store: %s", err)
	}
	defer processedCleanup()

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub client: %s", err)
	}
	defer pubsubCleanup()

	publisher := mypublisher.New(pubsub, nower)
	err = publisher.CreateTopic(c, orderevents.TopicName)
	if err != nil {
		log.Fatalf("Error creating topic %s: %s", orderevents.TopicName, err)
	}

	{
		checkoutService := checkoutstripe.NewWebService(checkoutstripe.Config{
			FrontendURL:   cfg.FrontendURL,
			Currency:      cfg.Currency,
			WebhookSecret: cfg.StripeWebhookSecret,
		}, checkoutstripe.NewPayer(cfg.StripeSecretKey, cfg.ProviderTimeout), ledger, processedStore, nower, uuider, publisher)
		checkoutService.RegisterEndpoints(c, router)
	}
	{
		ordersService := orderledger.NewWebService(ledger)
		ordersService.RegisterEndpoints(c, router)
	}
	{
		healthService := health.NewWebService(nower, ledger)
		healthService.RegisterEndpoints(c, router)
	}

	myhttp.CORS(router, cfg.FrontendURL)

	startWebServerBlocking(cfg.Port, router)
}

func startWebServerBlocking(port string, router *mux.Router) {
	log.Printf("Starting webserver on port %s (try http://localhost:%s/health)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
