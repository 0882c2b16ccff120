package main

import (
	"fmt"
	"net/http"

	"vesting-indexer/logger"
	"vesting-indexer/services/context"
	"vesting-indexer/services/routes"

	"github.com/gorilla/mux"
)

func main() {
	ctx, err := context.BuildContext()
	if err != nil {
		fmt.Printf("%v\n", err)
		return
	}
	logger.InitLogger(ctx.Config().Logger)

	router := mux.NewRouter()
	routes.AddVaultRoutes(router, ctx)
	routes.AddClaimRoutes(router, ctx)
	routes.AddWithdrawalRoutes(router, ctx)
	routes.AddAdminRoutes(router, ctx)

	srv := &http.Server{
		Handler: router,
		Addr:    ctx.Config().Services.Address,
	}
	logger.Info("starting services on %s", srv.Addr)
	err = srv.ListenAndServe()
	if err != nil {
		logger.Fatal("server error: %v", err)
	}
}
