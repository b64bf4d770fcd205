// Command migrate_volume re-encrypts a first-generation QWAMOS volume into
// the current post-quantum format.
//
// Flags may also be supplied through the environment with a QWAMOS_ prefix
// (QWAMOS_INPUT, QWAMOS_OUTPUT, QWAMOS_PASSWORD, ...). When no password is
// given either way, the command prompts on the terminal.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/qwamos/pqvolume"
)

var rootCmd = &cobra.Command{
	Use:   "migrate_volume",
	Short: "Migrate a legacy QWAMOS volume to the post-quantum format",
	Long: `migrate_volume decrypts a legacy (scrypt, v1) QWAMOS volume and rebuilds it
as a current-format volume protected by ML-KEM-1024 and Argon2id, keyed
under the same password.

The input volume is never modified. The output is assembled in a temporary
file, every sector is verified against the source, and only then is the
file moved into place; a failed migration leaves nothing behind.`,
	Version:       "2.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runMigrate,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringP("input", "i", "", "path of the legacy volume to migrate")
	flags.StringP("output", "o", "", "path for the migrated volume")
	flags.StringP("password", "p", "", "volume password (prefer QWAMOS_PASSWORD or the prompt)")
	flags.String("profile", "balanced", "Argon2id cost profile (light|interactive|balanced|paranoid)")
	flags.Int("workers", 4, "concurrent sector workers")
	flags.String("label", "", "label for the migrated volume (max 64 bytes)")
	flags.Bool("force", false, "replace the output file if it exists")

	viper.SetEnvPrefix("QWAMOS")
	viper.AutomaticEnv()
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	input := viper.GetString("input")
	output := viper.GetString("output")
	if input == "" || output == "" {
		return errors.New("both --input and --output are required")
	}

	profile, err := pqvolume.ParseProfile(viper.GetString("profile"))
	if err != nil {
		return err
	}

	password, err := resolvePassword()
	if err != nil {
		return err
	}

	if viper.GetBool("force") {
		if err := os.Remove(output); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove existing output: %w", err)
		}
	}

	mgr := pqvolume.New(
		pqvolume.WithSectorWorkers(viper.GetInt("workers")),
		pqvolume.WithProgress(renderEvent),
	)

	var opts []pqvolume.CreateOption
	if label := viper.GetString("label"); label != "" {
		opts = append(opts, pqvolume.WithLabel(label))
	}

	report, err := mgr.MigrateLegacy(input, output, password, profile, opts...)
	if err != nil {
		return err
	}

	fmt.Printf("[+] %d sectors (%d bytes) migrated in %s, verified\n",
		report.Sectors, report.Bytes, report.Duration.Round(time.Millisecond))
	fmt.Printf("[+] Volume written to %s\n", output)
	return nil
}

// resolvePassword takes the password from the flag or environment, falling
// back to an interactive prompt when stdin is a terminal.
func resolvePassword() ([]byte, error) {
	if pw := viper.GetString("password"); pw != "" {
		return []byte(pw), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("no password given and stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Volume password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	if len(pw) == 0 {
		return nil, errors.New("empty password")
	}
	return pw, nil
}

// renderEvent prints progress lines. Phase starts get [*], the closing event
// gets [+], and sector-counting events carry their counts.
func renderEvent(e pqvolume.ProgressEvent) {
	switch {
	case e.Done:
		fmt.Printf("[+] %s\n", e.Message)
	case e.Total > 4:
		fmt.Printf("[*] %s (%d/%d)\n", e.Message, e.Step, e.Total)
	default:
		fmt.Printf("[*] %s\n", e.Message)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		os.Exit(1)
	}
}
