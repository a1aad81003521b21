// Command mint-token issues user access tokens for local development and
// hashes admin passwords for EARNPRO_ADMIN_PASSWORD_HASH.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	pkgAuth "github.com/earnpro/rewards-backend/pkg/auth"
	"github.com/earnpro/rewards-backend/pkg/config"
	"github.com/earnpro/rewards-backend/pkg/enums"
	"github.com/earnpro/rewards-backend/pkg/logger"
	"github.com/earnpro/rewards-backend/pkg/security"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "mint-token", Format: logger.FormatConsole})

	_ = godotenv.Load()

	accountID := flag.Int64("account", 0, "telegram id to embed in a user token")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to EARNPRO_JWT_EXPIRATION_MINUTES)")
	hashPassword := flag.String("hash-password", "", "print the argon2id hash of this password and exit")
	flag.Parse()

	if *hashPassword != "" {
		var pwCfg config.PasswordConfig
		if err := envconfig.Process(config.EnvPrefix, &pwCfg); err != nil {
			logg.Error(ctx, "failed to load password config", err)
			os.Exit(1)
		}
		encoded, err := security.HashPassword(*hashPassword, pwCfg)
		if err != nil {
			logg.Error(ctx, "failed to hash password", err)
			os.Exit(1)
		}
		fmt.Println(encoded)
		return
	}

	if *accountID <= 0 {
		fmt.Fprintln(os.Stderr, "missing -account")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		fmt.Fprintln(os.Stderr, "refusing to mint tokens in prod")
		os.Exit(1)
	}

	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		AccountID: *accountID,
		Role:      enums.RoleUser,
		TTL:       *ttl,
	})
	if err != nil {
		logg.Error(ctx, "failed to mint token", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
