package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/target/multiauth/internal/adapters/token"
)

type genKeysOptions struct {
	Algorithm token.Algorithm
	OutDir    string
	Force     bool
}

func runGenKeys(cmdCtx *commandContext, args []string) error {
	opts, err := parseGenKeysFlags(args)
	if err != nil {
		return err
	}
	privPath, pubPath, err := writeKeyPair(opts)
	if err != nil {
		return err
	}
	return writef(cmdCtx.Out,
		"wrote %s key pair\n  TOKEN_ALG=%s\n  TOKEN_PRIVATE_KEY_PATH=%s\n  TOKEN_PUBLIC_KEY_PATH=%s\n",
		opts.Algorithm, opts.Algorithm, privPath, pubPath,
	)
}

func writeKeyPair(opts genKeysOptions) (string, string, error) {
	kp, err := token.GenerateKeyPair(opts.Algorithm)
	if err != nil {
		return "", "", fmt.Errorf("generate key pair: %w", err)
	}
	privPEM, pubPEM, err := kp.MarshalPEM()
	if err != nil {
		return "", "", err
	}

	if err := os.MkdirAll(opts.OutDir, 0o700); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}
	privPath := filepath.Join(opts.OutDir, "token_private.pem")
	pubPath := filepath.Join(opts.OutDir, "token_public.pem")

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !opts.Force {
		flags |= os.O_EXCL
	}
	if err := writeFile(privPath, privPEM, flags, 0o600); err != nil {
		return "", "", err
	}
	if err := writeFile(pubPath, pubPEM, flags, 0o644); err != nil {
		return "", "", err
	}
	return privPath, pubPath, nil
}

func writeFile(path string, content []byte, flags int, perm os.FileMode) error {
	f, err := os.OpenFile(path, flags, perm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists; pass --force to overwrite", path)
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.Write(content); err != nil {
		return errors.Join(fmt.Errorf("write %s: %w", path, err), f.Close())
	}
	return f.Close()
}

func parseGenKeysFlags(args []string) (genKeysOptions, error) {
	fs := flag.NewFlagSet("gen-keys", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var alg string
	opts := genKeysOptions{}
	fs.StringVar(&alg, "alg", string(token.ES256), "Signing algorithm: RS256 or ES256")
	fs.StringVar(&opts.OutDir, "out", ".", "Directory to write token_private.pem and token_public.pem")
	fs.BoolVar(&opts.Force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return genKeysOptions{}, err
	}
	opts.Algorithm = token.Algorithm(alg)
	if opts.Algorithm != token.RS256 && opts.Algorithm != token.ES256 {
		return genKeysOptions{}, fmt.Errorf("--alg must be RS256 or ES256, got %q", alg)
	}
	if opts.OutDir == "" {
		return genKeysOptions{}, errors.New("--out is required")
	}
	return opts, nil
}
