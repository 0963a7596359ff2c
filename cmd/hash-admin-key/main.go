// Generates the bcrypt hash of an admin key for AUTH_ADMIN_KEY_HASH.
package main

import (
	"fmt"
	"os"

	"github.com/moneysignalai/breakpoint-engine/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hash-admin-key <key>")
		os.Exit(1)
	}

	hash, err := auth.HashAdminKey(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
