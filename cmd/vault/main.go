package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"

	"secretVault/internal/config"
	"secretVault/internal/logger"
	"secretVault/internal/secretclient"
	"secretVault/internal/vaultdialog"
)

const help = "commands: name <NAME> | value | save | dismiss | refresh | close"

func main() {
	cfg := config.LoadClient()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	log := logger.L()

	if cfg.APIToken == "" {
		log.Warn("VAULT_API_TOKEN is empty; requests will be rejected by the API")
	}

	api := secretclient.NewHTTPAPIClient(cfg.APIURL, secretclient.BearerHeaders(cfg.APIToken), nil, log.Named("api"))
	dialog := vaultdialog.New(secretclient.New(api), log.Named("dialog"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in := bufio.NewReader(os.Stdin)
	if err := run(ctx, dialog, in, os.Stdout, hiddenReader(in, os.Stdout)); err != nil {
		log.Error("vault dialog stopped", zap.Error(err))
	}
}

// hiddenReader reads the secret value without echo when stdin is a terminal.
// out receives the newline the terminal swallowed.
func hiddenReader(in *bufio.Reader, out io.Writer) func() (string, error) {
	fd := int(os.Stdin.Fd())
	return func() (string, error) {
		if term.IsTerminal(fd) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			return string(b), err
		}
		return readLine(in)
	}
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// run opens the dialog and drives it from in until close, EOF or ctx ends.
func run(ctx context.Context, dialog *vaultdialog.Dialog, in *bufio.Reader, out io.Writer, readSecret func() (string, error)) error {
	dialog.Open(ctx)
	defer dialog.Close()

	for {
		if err := dialog.Render(out); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n> ", help)

		line, err := readLine(in)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		switch cmd {
		case "name":
			err = dialog.SetName(strings.TrimSpace(arg))
		case "value":
			fmt.Fprint(out, "Secret Value: ")
			var value string
			if value, err = readSecret(); err == nil {
				err = dialog.SetValue(value)
			}
		case "save":
			err = dialog.Save(ctx)
		case "dismiss":
			dialog.DismissStatus()
		case "refresh":
			err = dialog.Refresh(ctx)
		case "close", "quit", "exit":
			return nil
		case "":
		default:
			fmt.Fprintf(out, "unknown command %q\n", cmd)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
}
