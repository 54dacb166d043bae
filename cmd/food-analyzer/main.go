// @title Food Analyzer API
// @version 1.0
// @description Estimates nutrition facts for a photographed dish.
// @BasePath /
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"food-analyzer-go/internal/bootstrap"
)

func main() {
	fmt.Printf("[%s] [INFO] [Bootstrap] starting food-analyzer...\n", time.Now().Format("2006-01-02 15:04:05.000"))
	if err := bootstrap.Run(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "food-analyzer failed: %v\n", err)
		os.Exit(1)
	}
}
