package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"poster/pkg/clock"
	"poster/pkg/config"
	"poster/pkg/randx"
	"poster/pkg/state"
)

// statusCmd prints the current state without writing it
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persona state as the next run would see it",
	Long: `Loads the state file, applies the day and month rollover in memory, and
prints a summary. Nothing is written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		store, err := state.NewStore(stateDir, &cfg.Tuning, randx.NewFromTime(), nil)
		if err != nil {
			return err
		}
		now := clock.New(cfg.TimezoneOffsetHours).Now()
		st, info := store.Load(now)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "state:       %s\n", store.Path())
		fmt.Fprintf(out, "now:         %s\n", now.Timestamp)
		if info.Created {
			fmt.Fprintln(out, "             (no state yet, showing defaults)")
		}
		if info.DayRolled {
			fmt.Fprintln(out, "             (a new day: counters shown after rollover)")
		}
		fmt.Fprintf(out, "mood:        %s\n", st.Mood)
		fmt.Fprintf(out, "energy:      %d\n", st.Energy)
		fmt.Fprintf(out, "today:       %d/%d posts, %d skips, slots %v\n",
			st.TodayPostCount, st.TodayMaxPosts, st.TodaySkipCount, st.TodaySlotsUsed)
		fmt.Fprintf(out, "month:       %d posts, %d with images (%.1f%%)\n",
			st.MonthTotalPosts, st.MonthImagePosts, 100*state.ImageRatio(st))
		if mins := state.MinutesSinceLastPost(st, now.Time); mins != nil {
			fmt.Fprintf(out, "last post:   %.0f minutes ago\n", *mins)
		}
		fmt.Fprintf(out, "counters:    ng_retry=%d fallback_used=%d\n", st.NGRetryCount, st.FallbackUsedCount)
		if st.TodayNarrative != "" {
			fmt.Fprintf(out, "narrative:   %s\n", st.TodayNarrative)
		}
		if p := st.LatestPost(); p != nil {
			fmt.Fprintf(out, "latest:      [%s] %s\n", p.Slot, p.Text)
		}
		return nil
	},
}
