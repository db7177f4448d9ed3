package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mediagrab/pkg/auth"
)

var (
	authCookieFile string
	authBrowser    string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage per-platform cookie credentials",
	Long: `Manage stored platform credentials.

Credentials are cookie sources, not passwords: either a Netscape-format
cookie file exported from your browser, or the name of a browser whose
cookie store the downloader reads directly.

Storage backends, tried in order:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (MEDIAGRAB_<PLATFORM>_COOKIE_FILE)`,
}

var authSetCmd = &cobra.Command{
	Use:   "set <platform>",
	Short: "Store a cookie source for a platform",
	Example: `  # Use an exported cookie file
  mediagrab auth set pinterest --cookies ~/pinterest_cookies.txt

  # Read cookies live from Chrome
  mediagrab auth set instagram --browser chrome`,
	Args: cobra.ExactArgs(1),
	Run:  runAuthSet,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List platforms with stored credentials",
	Run:   runAuthList,
}

var authRemoveCmd = &cobra.Command{
	Use:   "remove <platform>",
	Short: "Remove stored credentials for a platform",
	Args:  cobra.ExactArgs(1),
	Run:   runAuthRemove,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authRemoveCmd)

	authSetCmd.Flags().StringVar(&authCookieFile, "cookies", "", "path to a Netscape-format cookie file")
	authSetCmd.Flags().StringVar(&authBrowser, "browser", "", "browser to read cookies from (chrome, firefox, ...)")
}

func credentialManager() *auth.Manager {
	// Without a keychain the encrypted file backend needs a passphrase;
	// prompt once when the environment does not provide it.
	if os.Getenv("MEDIAGRAB_PASSPHRASE") == "" && term.IsTerminal(int(syscall.Stdin)) {
		fmt.Print("Passphrase for credential store (Enter for machine default): ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil && len(pass) > 0 {
			os.Setenv("MEDIAGRAB_PASSPHRASE", string(pass))
		}
	}

	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize credential manager:", err)
		os.Exit(1)
	}
	return manager
}

func runAuthSet(cmd *cobra.Command, args []string) {
	if authCookieFile == "" && authBrowser == "" {
		fmt.Fprintln(os.Stderr, "one of --cookies or --browser is required")
		os.Exit(1)
	}
	if authCookieFile != "" {
		if _, err := os.Stat(authCookieFile); err != nil {
			fmt.Fprintln(os.Stderr, "cookie file not readable:", err)
			os.Exit(1)
		}
	}

	manager := credentialManager()
	cred := &auth.Credential{
		Platform:      args[0],
		CookieFile:    authCookieFile,
		BrowserSource: authBrowser,
	}
	if err := manager.Set(cred); err != nil {
		fmt.Fprintln(os.Stderr, "failed to store credential:", err)
		os.Exit(1)
	}
	fmt.Println("credential stored for", args[0])
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager := credentialManager()
	creds, err := manager.List()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to list credentials:", err)
		os.Exit(1)
	}
	if len(creds) == 0 {
		fmt.Println("no credentials stored")
		return
	}
	for _, cred := range creds {
		source := cred.CookieFile
		if source == "" {
			source = "browser:" + cred.BrowserSource
		}
		fmt.Printf("%-12s %s\n", cred.Platform, source)
	}
}

func runAuthRemove(cmd *cobra.Command, args []string) {
	manager := credentialManager()
	if err := manager.Delete(args[0]); err != nil {
		fmt.Fprintln(os.Stderr, "failed to remove credential:", err)
		os.Exit(1)
	}
	fmt.Println("credential removed for", args[0])
}
