package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jobpipe/jobpipe/internal/dkim"
)

var (
	dkimDomain   string
	dkimSelector string
	dkimKeyFile  string
	dkimOutDir   string
)

var dkimCmd = &cobra.Command{
	Use:   "dkim",
	Short: "DKIM key management commands",
}

var dkimGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new DKIM key pair",
	Long:  `Generate an RSA 2048-bit DKIM key pair and print the DNS record to publish.`,
	RunE:  runDKIMGenerate,
}

var dkimShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the DNS record for an existing key",
	RunE:  runDKIMShow,
}

func init() {
	for _, c := range []*cobra.Command{dkimGenerateCmd, dkimShowCmd} {
		c.Flags().StringVar(&dkimDomain, "domain", "", "Domain name (required)")
		c.Flags().StringVar(&dkimSelector, "selector", "outreach", "DKIM selector")
		c.MarkFlagRequired("domain")
	}
	dkimGenerateCmd.Flags().StringVar(&dkimOutDir, "out", ".", "Output directory for the key file")
	dkimShowCmd.Flags().StringVar(&dkimKeyFile, "key", "", "Path to private key file (required)")
	dkimShowCmd.MarkFlagRequired("key")

	dkimCmd.AddCommand(dkimGenerateCmd, dkimShowCmd)
	rootCmd.AddCommand(dkimCmd)
}

func runDKIMGenerate(cmd *cobra.Command, args []string) error {
	kp, err := dkim.GenerateKey(dkimDomain, dkimSelector)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	keyPath := filepath.Join(dkimOutDir, dkimDomain+".key")
	if err := kp.SavePrivateKey(keyPath); err != nil {
		return fmt.Errorf("failed to save private key: %w", err)
	}

	fmt.Printf("Private key saved to %s\n", keyPath)
	printDNSRecord(kp)
	return nil
}

func runDKIMShow(cmd *cobra.Command, args []string) error {
	key, err := dkim.LoadPrivateKey(dkimKeyFile)
	if err != nil {
		return fmt.Errorf("failed to load private key: %w", err)
	}

	printDNSRecord(&dkim.KeyPair{
		PrivateKey: key,
		Domain:     dkimDomain,
		Selector:   dkimSelector,
	})
	return nil
}

func printDNSRecord(kp *dkim.KeyPair) {
	fmt.Printf("\nPublish this TXT record:\n")
	fmt.Printf("  Name:  %s\n", kp.DNSName())
	fmt.Printf("  Value: %s\n", kp.DNSRecord())
}
