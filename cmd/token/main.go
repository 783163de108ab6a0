// Command token issues editor tokens for the admin API.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"

	"newsrecs/app/internal/auth"
	"newsrecs/app/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	flags := flag.NewFlagSet("token", flag.ContinueOnError)
	editor := flags.String("editor", "", "name of the editor the token is issued to")
	ttl := flags.Duration("ttl", 0, "token lifetime, defaults to EDITOR_TOKEN_TTL")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*editor) == "" {
		return eris.New("-editor is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}

	lifetime := cfg.EditorTokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	tokens, err := auth.NewTokens(cfg.EditorTokenSecret, lifetime)
	if err != nil {
		return eris.Wrap(err, "creating editor tokens")
	}

	token, expires, err := tokens.Issue(*editor)
	if err != nil {
		return err
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expires.Format("2006-01-02 15:04:05 MST"))
	return nil
}
