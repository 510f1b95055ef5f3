package cmd

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/abhisek/pathwise/internal/library"
	"github.com/abhisek/pathwise/internal/store"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "List and delete saved courses",
}

// openLibrary opens the configured course store for the CLI user and
// loads their courses. The returned func closes everything.
func openLibrary(cmd *cobra.Command) (*library.Library, []library.Course, func(), error) {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	log := cliLogger(cfg)

	st, err := store.Open(cfg.Store.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	courses, closeCourses, err := openCourseRepo(ctx, cfg, st, log)
	if err != nil {
		st.Close()
		return nil, nil, nil, err
	}

	lib := library.New(courses, log)
	list := lib.Load(ctx, libraryUser(cfg))
	cleanup := func() {
		_ = closeCourses()
		st.Close()
		_ = log.Sync()
	}
	return lib, list, cleanup, nil
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved courses, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, courses, cleanup, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		if len(courses) == 0 {
			fmt.Println("No saved courses.")
			return nil
		}

		fmt.Printf("%-14s  %-40s  %-12s  %5s  %s\n", "ID", "Course", "Difficulty", "Done", "Opened")
		fmt.Println(strings.Repeat("─", 90))
		for _, c := range courses {
			fmt.Printf("%-14s  %-40s  %-12s  %4d%%  %s\n",
				c.ID,
				truncate(c.Path.Title, 40),
				c.Path.Difficulty,
				c.ProgressPercent(),
				humanize.Time(c.LastAccessed),
			)
			fmt.Printf("%-14s  %s\n", "", truncate(c.Subject+" · "+c.Pillar.Title, 70))
		}
		return nil
	},
}

var libraryDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete saved courses",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, courses, cleanup, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		for _, id := range args {
			c, ok := library.Find(courses, id)
			if !ok {
				return fmt.Errorf("course %s not found", id)
			}
			if err := lib.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
			fmt.Printf("Deleted %s (%s)\n", c.Path.Title, id)
		}
		return nil
	},
}

func init() {
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryDeleteCmd)
}
