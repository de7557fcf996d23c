package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/terraincognita07/tukicale/internal/services"
)

// RunPredict prints the cycle summary and the next forecast starts.
func RunPredict(ctx context.Context, configPath string, forecast int, out io.Writer) error {
	rt, err := openRuntime(ctx, configPath, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	stats, err := rt.stats.Build(ctx, rt.now(), rt.cfg.Location(), forecast)
	if err != nil {
		return err
	}
	records, err := rt.records.Load(ctx)
	if err != nil {
		return err
	}

	language := rt.cfg.Language
	if stats.PeriodCount == 0 {
		fmt.Fprintln(out, rt.i18n.Translate(language, "predict.no_data"))
		return nil
	}

	fmt.Fprintf(out, "%s: %s\n", rt.i18n.Translate(language, "predict.last_start"), stats.LastPeriodStart)
	fmt.Fprintf(out, "%s: %d\n", rt.i18n.Translate(language, "predict.average_cycle"), stats.AverageCycleLength)
	fmt.Fprintf(out, "%s: %d\n", rt.i18n.Translate(language, "predict.average_period"), stats.AveragePeriodLength)
	if stats.DaysUntilNextPeriod != nil {
		fmt.Fprintf(out, "%s: %s (%d)\n", rt.i18n.Translate(language, "predict.next_start"), stats.NextPeriodStart, *stats.DaysUntilNextPeriod)
	}

	predictions := services.BuildPredictions(records.Periods)
	printRanges(out, rt.i18n.Translate(language, "event.fertile"), predictions.Fertile)
	printRanges(out, rt.i18n.Translate(language, "event.pms"), predictions.PMS)
	printRanges(out, rt.i18n.Translate(language, "event.next_period"), predictions.NextPeriod)

	if len(stats.UpcomingStarts) > 0 {
		fmt.Fprintf(out, "%s: %s\n", rt.i18n.Translate(language, "predict.upcoming"), strings.Join(stats.UpcomingStarts, ", "))
	}
	return nil
}

func printRanges(out io.Writer, label string, days []string) {
	for _, dateRange := range services.GroupConsecutiveDates(days) {
		if dateRange.Start == dateRange.End {
			fmt.Fprintf(out, "%s: %s\n", label, dateRange.Start)
			continue
		}
		fmt.Fprintf(out, "%s: %s - %s\n", label, dateRange.Start, dateRange.End)
	}
}
