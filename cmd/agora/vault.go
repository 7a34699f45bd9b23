package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"agora/internal/config"
	"agora/internal/store"
	"agora/internal/vault"
)

func runVault(args []string) error {
	if len(args) == 0 {
		printVaultUsage()
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Vault.Passphrase == "" {
		return fmt.Errorf("vault passphrase is required (AGORA_VAULT_PASSPHRASE)")
	}

	db, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	keeper := vault.NewKeeper(vault.New(cfg.Vault.Passphrase), db)

	switch args[0] {
	case "list":
		return vaultList(db)
	case "set":
		return vaultSet(keeper, args[1:])
	case "get":
		return vaultGet(keeper, args[1:])
	case "delete":
		return vaultDelete(keeper, args[1:])
	default:
		printVaultUsage()
		return fmt.Errorf("unknown vault command: %s", args[0])
	}
}

func printVaultUsage() {
	fmt.Fprintf(os.Stderr, `Usage: agora vault <command>

Commands:
  list                        List all secrets (metadata only)
  set <name> <value> [kind]   Store an encrypted secret
  get <name>                  Retrieve and decrypt a secret
  delete <name>               Delete a secret

Environment:
  AGORA_VAULT_PASSPHRASE      Required. Encryption passphrase.
`)
}

func vaultList(db *store.Store) error {
	secrets, err := db.ListSecrets()
	if err != nil {
		return err
	}
	if len(secrets) == 0 {
		fmt.Println("No secrets stored.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tUPDATED")
	for _, s := range secrets {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.Kind, s.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func vaultSet(keeper *vault.Keeper, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: agora vault set <name> <value> [kind]")
	}
	kind := "api_key"
	if len(args) > 2 {
		kind = args[2]
	}
	if err := keeper.Put(args[0], kind, []byte(args[1])); err != nil {
		return err
	}
	fmt.Printf("Secret %s stored.\n", args[0])
	return nil
}

func vaultGet(keeper *vault.Keeper, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: agora vault get <name>")
	}
	value, err := keeper.Get(args[0])
	if err != nil {
		return err
	}
	if value == nil {
		return fmt.Errorf("secret %s not found", args[0])
	}
	fmt.Println(string(value))
	return nil
}

func vaultDelete(keeper *vault.Keeper, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: agora vault delete <name>")
	}
	if err := keeper.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Secret %s deleted.\n", args[0])
	return nil
}
