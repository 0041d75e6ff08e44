package main

import (
	"context"
	"log"

	"github.com/mkaraca/dukkan/internal/client"
	"github.com/mkaraca/dukkan/internal/client/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := client.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
