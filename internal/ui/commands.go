package ui

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nconklindev/sheetjson/internal/export"
	"github.com/nconklindev/sheetjson/internal/remote"
	"github.com/nconklindev/sheetjson/internal/types"
)

type uploadDoneMsg struct {
	path string
	resp *types.UploadResponse
	err  error
}

type analyzeDoneMsg struct {
	ticket remote.Ticket
	resp   *types.AnalyzeResponse
	err    error
}

// convertDoneMsg carries a convert result. batch is false for a single-sheet
// convert, which does not own the converting flag.
type convertDoneMsg struct {
	ticket remote.Ticket
	resp   *types.ConvertResponse
	batch  bool
	err    error
}

type downloadDoneMsg struct {
	paths []string
	err   error
}

// sheetRecords is a snapshot handed to a download command
type sheetRecords struct {
	name    string
	records []json.RawMessage
}

func withTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

func uploadCmd(client *remote.Client, timeout time.Duration, path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		resp, err := client.Upload(ctx, path)
		return uploadDoneMsg{path: path, resp: resp, err: err}
	}
}

func analyzeCmd(client *remote.Client, timeout time.Duration, req *types.AnalyzeRequest, t remote.Ticket) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		resp, err := client.Analyze(ctx, req)
		return analyzeDoneMsg{ticket: t, resp: resp, err: err}
	}
}

func convertCmd(client *remote.Client, timeout time.Duration, req *types.ConvertRequest, t remote.Ticket, batch bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		resp, err := client.Convert(ctx, req)
		return convertDoneMsg{ticket: t, resp: resp, batch: batch, err: err}
	}
}

func downloadCmd(dir string, sheets []sheetRecords) tea.Cmd {
	return func() tea.Msg {
		var paths []string
		var errs []error
		for _, sh := range sheets {
			path, err := export.WriteSheet(dir, sh.name, sh.records)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			paths = append(paths, path)
		}
		return downloadDoneMsg{paths: paths, err: errors.Join(errs...)}
	}
}
