package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"secret_santa/pkg/config"
)

const releaseVersion = "1.0.0"

func main() {
	cobra.CheckErr(newCmd().Execute())
}

// newCmd 建立根命令。旗標綁定到 viper 的設定鍵，優先順序為 旗標 > 環境變數 > config.yaml > 預設值
func newCmd() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:           "secret-santa",
		Short:         "Secret Santa rooms: register participants, draw once, reveal privately.",
		Args:          cobra.ExactArgs(0),
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringP("address", "a", ":3000", "address to listen on (env: SANTA_SERVER_ADDRESS)")
	fs.String("public-url", "", "base URL prepended to shared links (env: SANTA_SERVER_PUBLIC_URL)")
	fs.String("static-dir", "", "directory of front-end files served at / (env: SANTA_SERVER_STATIC_DIR)")
	fs.String("mode", "release", "gin mode: debug, release or test (env: SANTA_SERVER_MODE)")
	fs.String("store", config.StoreDriverPostgres, "storage driver: postgres or memory (env: SANTA_STORE_DRIVER)")
	fs.BoolP("verbose", "v", false, "log every request and SQL statement (env: SANTA_LOG_VERBOSE)")

	bindFlags(v, fs, map[string]string{
		"address":    "server.address",
		"public-url": "server.public_url",
		"static-dir": "server.static_dir",
		"mode":       "server.mode",
		"store":      "store.driver",
		"verbose":    "log.verbose",
	})

	cmd.AddCommand(newMigrateCmd(v), newVersionCmd())

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("secret-santa v{{.Version}}\n")

	return cmd
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		cobra.CheckErr(v.BindPFlag(key, fs.Lookup(name)))
	}
}

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the postgres tables and exit",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return migrate(cfg)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and exit",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "secret-santa v%s\n", releaseVersion)
		},
	}
}
