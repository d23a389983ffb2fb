package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "登入並取得 JWT",
	Long:  `以帳號密碼向伺服器換取 JWT，把輸出的 token 放進 --token 或設定檔即可連線。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		body, _ := json.Marshal(map[string]string{
			"username": username,
			"password": password,
		})

		httpClient := &http.Client{Timeout: 10 * time.Second}
		resp, err := httpClient.Post(viper.GetString(serverKey)+"/api/login", "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("無法連上伺服器: %w", err)
		}
		defer resp.Body.Close()

		var reply struct {
			Token string `json:"token"`
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
			return fmt.Errorf("無法解析伺服器回應: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("登入失敗: %s", reply.Error)
		}

		fmt.Println(reply.Token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringP("username", "u", "", "帳號")
	loginCmd.Flags().StringP("password", "p", "", "密碼")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")
}
