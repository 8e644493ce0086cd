package main

import (
	"context"
	"log"

	"github.com/MrSnakeDoc/toolshelf/internal/app"
)

func main() {
	ctx := context.Background()
	a, err := app.New(ctx)
	if err != nil {
		log.Fatalf("❌ toolshelf failed to start: %v", err)
	}
	if err := a.Run(ctx); err != nil {
		log.Fatalf("❌ toolshelf stopped with error: %v", err)
	}
}
