// ABOUTME: Admin CLI for cloak-server operators
// ABOUTME: Mints JWT bearer tokens for users against the configured secret

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"github.com/cloakchat/cloak/internal/auth"
	"github.com/cloakchat/cloak/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "token":
		err = cmdToken(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func usage() {
	cyan := color.New(color.FgCyan)
	cyan.Println("cloak-admin - operator tooling for cloak-server")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  token create --user ID [--ttl 24h]   Mint a JWT bearer token for a user")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  CLOAK_CONFIG   Path to the server config (for auth.jwt_secret)")
}

// getConfigPath mirrors cloak-server's config resolution so both binaries
// read the same file by default.
func getConfigPath() string {
	if envPath := os.Getenv("CLOAK_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "server.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "cloak", "server.yaml")
}

func cmdToken(args []string) error {
	if len(args) < 1 || args[0] != "create" {
		return fmt.Errorf("usage: cloak-admin token create --user ID [--ttl 24h]")
	}

	fs := flag.NewFlagSet("token create", flag.ContinueOnError)
	userID := fs.String("user", "", "user id to embed in the token")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *userID == "" {
		return fmt.Errorf("--user is required")
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	token, err := verifier.Generate(*userID, *ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	color.Green("Token for %s (expires in %s):", *userID, *ttl)
	fmt.Println(token)
	return nil
}
