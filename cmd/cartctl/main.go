// cartctl - terminal console for a commerce session: cart, promo codes,
// wishlist, and identity, backed by the same engines the agent endpoint uses.
package main

import (
	"fmt"
	"os"

	"cartsync/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
