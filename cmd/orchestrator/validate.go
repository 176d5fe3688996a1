package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/AaronLay10/SentientPlayer/internal/playlist"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse a playlist and report its subjects, media and dangling references",
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()
		cfg, _, err := loadEngineConfig(fs)
		if err != nil {
			return err
		}
		setupLogging(cfg.Logging.Level, cfg.Logging.Format)

		s, err := loadShow(fs, cfg)
		if err != nil {
			return err
		}
		return report(s, cmd.OutOrStdout())
	},
}

// report prints a summary of s and fails when a branch target names no
// subject.
func report(s *show, out io.Writer) error {
	doc := s.doc
	ids := doc.SubjectIDs()
	sort.Strings(ids)

	fmt.Fprintf(out, "playlist: %s\n", s.cfg.Show.Playlist)
	fmt.Fprintf(out, "first subject: %s\n", doc.FirstSubject)
	fmt.Fprintf(out, "subjects (%d): %s\n", len(ids), strings.Join(ids, ", "))

	byType := lo.CountValuesBy(doc.Media, func(m *playlist.MediaItem) string { return m.Type })
	types := lo.Keys(byType)
	sort.Strings(types)
	parts := lo.Map(types, func(t string, _ int) string { return fmt.Sprintf("%s=%d", t, byType[t]) })
	fmt.Fprintf(out, "media (%d): %s\n", len(doc.Media), strings.Join(parts, " "))

	overlays := lo.SumBy(doc.Media, func(m *playlist.MediaItem) int { return len(m.Overlays) })
	questions := lo.SumBy(doc.Media, func(m *playlist.MediaItem) int {
		return lo.SumBy(m.QuestionLists, func(l *playlist.QuestionList) int { return len(l.Questions) })
	})
	fmt.Fprintf(out, "overlays: %d, questions: %d\n", overlays, questions)

	for _, w := range s.warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}

	dangling := doc.DanglingReferences()
	sort.Strings(dangling)
	if len(dangling) > 0 {
		return fmt.Errorf("unknown subjects referenced: %s", strings.Join(dangling, ", "))
	}
	fmt.Fprintln(out, "ok")
	return nil
}
