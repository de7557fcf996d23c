package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/terraincognita07/tukicale/internal/calendar"
	"github.com/terraincognita07/tukicale/internal/services"
)

// RunSync runs one reconciliation pass. With dryRun the pass targets an
// in-memory calendar and prints the events that would be written.
func RunSync(ctx context.Context, configPath string, dryRun bool, out io.Writer) error {
	options := runtimeOptions{}
	var preview *calendar.MemoryMirror
	if dryRun {
		preview = calendar.NewMemoryMirror()
		options.mirror = preview
	}

	rt, err := openRuntime(ctx, configPath, options)
	if err != nil {
		return err
	}
	defer rt.Close()

	if !rt.sync.Enabled() {
		return services.ErrSyncDisabled
	}

	report, err := rt.sync.SyncNow(ctx)
	fmt.Fprintf(out, "pass %s: listed=%d deleted=%d created=%d", report.PassID, report.Listed, report.Deleted, report.Created)
	if report.DeleteFailed > 0 || report.CreateFailed > 0 {
		fmt.Fprintf(out, " delete_failed=%d create_failed=%d", report.DeleteFailed, report.CreateFailed)
	}
	fmt.Fprintln(out)
	if err != nil {
		return err
	}

	if preview != nil {
		for _, event := range preview.Events(rt.reconciler.CalendarName()) {
			fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", event.Start, event.End, event.Category, event.Summary)
		}
	}
	return nil
}
