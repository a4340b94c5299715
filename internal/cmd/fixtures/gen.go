package fixtures

import (
	"bytes"
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mdubravic83/POtranslate/internal/catalog"
	"github.com/mdubravic83/POtranslate/internal/local"
)

var words = []string{
	"file", "open", "save", "close", "settings", "account", "password",
	"upload", "download", "language", "translation", "error", "welcome",
	"cancel", "delete", "search", "profile", "message", "help", "report",
}

// Generate builds a catalog of n entries. Roughly one in filledEvery entries
// already carries a translation and one in ten is a plural entry.
func Generate(r *rand.Rand, lang string, n, filledEvery int) *catalog.Catalog {
	c := catalog.New(lang)
	c.SetMeta("Project-Id-Version", "fixtures 1.0")
	c.SetMeta("Plural-Forms", "nplurals=2; plural=(n != 1);")

	for i := 0; i < n; i++ {
		msgid := sentence(r, i)
		e := &catalog.Entry{
			MsgID:      msgid,
			References: []string{fmt.Sprintf("src/view_%d.go:%d", i%7, 10+i)},
		}
		if i%10 == 9 {
			e.MsgIDPlural = msgid + "s"
			e.MsgStrPlural = map[int]string{0: "", 1: ""}
		}
		if filledEvery > 0 && i%filledEvery == 0 {
			e.SetValue("[" + lang + "] " + msgid)
		}
		c.Entries = append(c.Entries, e)
	}
	return c
}

func sentence(r *rand.Rand, i int) string {
	n := 1 + r.Intn(4)
	var b bytes.Buffer
	for j := 0; j < n; j++ {
		if j > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(words[r.Intn(len(words))])
	}
	return fmt.Sprintf("%s %d", b.String(), i)
}

func newGenerateCommand() *cobra.Command {
	var (
		outDir      string
		files       int
		entries     int
		filledEvery int
		lang        string
		seed        int64
	)

	var cmd = &cobra.Command{
		Use:   "generate",
		Short: "Generates sample PO catalogs for testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, _ := zap.NewDevelopment()
			defer logger.Sync()
			l := logger.Named("fixtures.generate")

			r := rand.New(rand.NewSource(seed))
			repo := local.New(outDir, local.WithLogger(l))

			for i := 0; i < files; i++ {
				c := Generate(r, lang, entries, filledEvery)
				key := fmt.Sprintf("fixture_%03d.po", i)
				if err := repo.Write(cmd.Context(), key, bytes.NewReader(catalog.Render(c))); err != nil {
					return err
				}
				l.Info("wrote fixture", zap.String("path", repo.Path(key)), zap.Int("entries", entries))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "dev/fixtures", "Output directory")
	cmd.Flags().IntVarP(&files, "files", "n", 1, "Number of catalogs to generate")
	cmd.Flags().IntVar(&entries, "entries", 100, "Entries per catalog")
	cmd.Flags().IntVar(&filledEvery, "filled-every", 4, "Pre-fill every nth entry, 0 leaves all empty")
	cmd.Flags().StringVar(&lang, "lang", "en", "Language header of the generated catalogs")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")
	return cmd
}
