package main

import (
	"context"
	"log"
	"os"

	"github.com/localbizsite/localbiz/internal/ctl"
	"github.com/localbizsite/localbiz/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	if err := ctl.Run(ctx, cfg, ctl.CommandArgs(os.Args[1:]), os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}

}
