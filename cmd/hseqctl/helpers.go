package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"hseqaudit/cmd/internal/app"
	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/service"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/spf13/cobra"
)

func withApp(ctx context.Context, fn func(a *app.App) error) error {
	if err := config.LoadEnv(ctx); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	config.SetLogLevel(cfg.LogLevel)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			config.GetLogger().Errorf("failed to close resources: %v", err)
		}
	}()
	return fn(a)
}

func exportReport(a *app.App, auditID int64, out string, cmd *cobra.Command) error {
	var buf bytes.Buffer
	name, err := a.Reports.ExportAudit(&buf, auditID)
	if errors.Is(err, service.ErrAuditNotFound) {
		return &cmdError{code: 4, msg: fmt.Sprintf("audit %d not found", auditID)}
	}
	if err != nil {
		return err
	}

	if out == "" {
		out = name
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, buf.Len())
	return nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &cmdError{code: 2, msg: fmt.Sprintf("invalid id %q", raw)}
	}
	return id, nil
}

func apiFailure(op string, apierr apierror.ErrorResponse) error {
	code := 3
	if apierr.Code() == http.StatusNotFound {
		code = 4
	}

	detail, err := json.Marshal(apierr)
	if err != nil {
		detail = []byte(http.StatusText(apierr.Code()))
	}
	return &cmdError{code: code, msg: fmt.Sprintf("%s failed with status %d: %s", op, apierr.Code(), detail)}
}
