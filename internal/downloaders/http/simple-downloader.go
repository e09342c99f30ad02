package dwhttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tanq16/dw/internal/reporter"
	"github.com/tanq16/dw/internal/utils"
)

// Transfer runs one task through existence check, request, status check,
// file creation and streamed copy. It returns nil or a *utils.TaskError, and
// the task's reporter always ends with exactly one OnComplete or OnError.
func Transfer(ctx context.Context, client utils.HTTPDoer, task utils.DownloadTask) error {
	rep := task.Reporter
	if rep == nil {
		rep = reporter.Silent{}
	}
	err := transfer(ctx, client, task, rep)
	if err != nil {
		rep.OnError(err)
		return err
	}
	rep.OnComplete(task.URL, task.OutputPath)
	return nil
}

func transfer(ctx context.Context, client utils.HTTPDoer, task utils.DownloadTask, rep reporter.Reporter) error {
	log := utils.GetLogger("http/transfer").With().Str("task", task.ID).Str("url", task.URL).Logger()

	if _, err := os.Stat(task.OutputPath); err == nil {
		rep.OnFileExists(task.OutputPath, task.Overwrite)
		if !task.Overwrite {
			return utils.NewTaskError(utils.PhaseDestinationExists, task, utils.ErrDestinationExists)
		}
		if err := os.Remove(task.OutputPath); err != nil {
			return utils.NewTaskError(utils.PhaseFileSystem, task, fmt.Errorf("error removing existing file: %w", err))
		}
		log.Debug().Str("path", task.OutputPath).Msg("Removed existing file")
	} else if !errors.Is(err, os.ErrNotExist) {
		return utils.NewTaskError(utils.PhaseFileSystem, task, fmt.Errorf("error checking output path: %w", err))
	}

	rep.OnRequest(task.URL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.URL, nil)
	if err != nil {
		return utils.NewTaskError(utils.PhaseRequest, task, fmt.Errorf("error creating GET request: %w", err))
	}
	resp, err := client.Do(req)
	if err != nil {
		return utils.NewTaskError(utils.PhaseRequest, task, fmt.Errorf("error executing GET request: %w", err))
	}
	defer resp.Body.Close()
	rep.OnResponse(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		te := utils.NewTaskError(utils.PhaseResponseStatus, task, fmt.Errorf("%w: %s", utils.ErrBadStatus, resp.Status))
		te.StatusCode = resp.StatusCode
		return te
	}

	size := resp.ContentLength
	if size < 0 {
		size = -1
	}
	rep.OnFileSizeKnown(size)
	log.Debug().Int64("size", size).Msg("Response accepted")

	if dir := filepath.Dir(task.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return utils.NewTaskError(utils.PhaseFileSystem, task, fmt.Errorf("error creating output directory: %w", err))
		}
	}
	outFile, err := os.Create(task.OutputPath)
	if err != nil {
		return utils.NewTaskError(utils.PhaseFileSystem, task, fmt.Errorf("error creating output file: %w", err))
	}
	defer outFile.Close()
	rep.OnFileCreate(task.OutputPath)

	rep.OnStartDownload(task.URL, task.OutputPath)
	written, err := streamBody(resp.Body, outFile, rep)
	if err != nil {
		log.Warn().Err(err).Int64("written", written).Msg("Transfer aborted, partial file kept")
		return utils.NewTaskError(utils.PhaseStream, task, err)
	}
	if err := outFile.Close(); err != nil {
		return utils.NewTaskError(utils.PhaseStream, task, fmt.Errorf("error closing output file: %w", err))
	}
	log.Info().Int64("bytes", written).Str("path", task.OutputPath).Msg("Download complete")
	return nil
}

// streamBody copies body to out chunk by chunk, reporting each chunk length
// after it is written, then syncs the file.
func streamBody(body io.Reader, out *os.File, rep reporter.Reporter) (int64, error) {
	buffer := make([]byte, utils.DefaultBufferSize)
	var written int64
	for {
		bytesRead, readErr := body.Read(buffer)
		if bytesRead > 0 {
			if _, err := out.Write(buffer[:bytesRead]); err != nil {
				return written, fmt.Errorf("error writing to output file: %w", err)
			}
			written += int64(bytesRead)
			rep.OnProgress(int64(bytesRead))
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return written, fmt.Errorf("error reading response body: %w", readErr)
		}
	}
	if err := out.Sync(); err != nil {
		return written, fmt.Errorf("error syncing output file: %w", err)
	}
	return written, nil
}
