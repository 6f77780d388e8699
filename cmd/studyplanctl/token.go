package main

import (
	"errors"
	"fmt"
	"time"

	"alcyxob/intern-platform/internal/domain"

	"github.com/golang-jwt/jwt/v4"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// tokenClaims matches what the API's auth middleware verifies.
type tokenClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Mint a bearer token for local development",
	Long:  "Signs a token with jwt.secret so the API can be exercised without the identity service.",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		if _, err := primitive.ObjectIDFromHex(userID); err != nil {
			return fmt.Errorf("invalid --user %q: %w", userID, err)
		}
		switch domain.Role(role) {
		case domain.RoleStudent, domain.RoleCompany, domain.RoleLecturer, domain.RoleAdmin:
		default:
			return fmt.Errorf("unknown --role %q", role)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.JWT.Secret == "" {
			return errors.New("jwt.secret is not configured")
		}

		signed, err := signToken(cfg.JWT.Secret, cfg.JWT.Issuer, userID, domain.Role(role), ttl, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signed)
		return nil
	},
}

func signToken(secret, issuer, userID string, role domain.Role, ttl time.Duration, now time.Time) (string, error) {
	claims := tokenClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func init() {
	issueTokenCmd.Flags().String("user", "", "User ObjectID hex")
	issueTokenCmd.Flags().String("role", string(domain.RoleStudent), "student | company | lecturer | admin")
	issueTokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = issueTokenCmd.MarkFlagRequired("user")
}
