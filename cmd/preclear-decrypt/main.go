package main

import (
	"io"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"

	"github.com/denysvitali/preclear/pkg/cli"
	docscrypt "github.com/denysvitali/preclear/pkg/crypt"
)

var args struct {
	InputFile  string `arg:"positional" help:"Encrypted file, stdin when omitted"`
	Passphrase string `arg:"env:PASSPHRASE" help:"Storage passphrase, may be keychain:<element>"`
}

var log = logrus.StandardLogger()

func main() {
	arg.MustParse(&args)
	if err := cli.FillKeychainValues(&args); err != nil {
		log.Fatalf("fill keychain values: %v", err)
	}

	if args.Passphrase == "" {
		log.Fatalf("passphrase cannot be empty")
	}

	c, err := docscrypt.New(args.Passphrase)
	if err != nil {
		log.Fatalf("unable to create crypt: %v", err)
	}

	var input io.Reader = os.Stdin
	if args.InputFile != "" {
		f, err := os.Open(args.InputFile)
		if err != nil {
			log.Fatalf("unable to open file: %v", err)
		}
		defer f.Close()
		input = f
	}

	reader, err := c.Decrypt(input)
	if err != nil {
		log.Fatalf("unable to decrypt: %v", err)
	}

	if _, err := io.Copy(os.Stdout, reader); err != nil {
		log.Fatalf("unable to copy: %v", err)
	}
}
