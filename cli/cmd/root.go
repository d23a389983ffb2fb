package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"debate_live/internal/realtime"
	"debate_live/pkg/client"
)

var cfgFile string

const (
	serverKey       = "server"
	tokenKey        = "token"
	baseIntervalKey = "reconnect_base"
	maxAttemptsKey  = "reconnect_attempts"
)

// rootCmd 不帶子指令時直接進入互動模式
var rootCmd = &cobra.Command{
	Use:   "debate-cli",
	Short: "debate_live 的終端機客戶端",
	Long: `連上 debate_live 伺服器的即時通道，加入辯論或直播房間。

互動模式指令：
  /join <房間ID> [debate|stream] [mod]   加入房間（mod 表示以主持人身分開直播）
  /leave                                 離開目前房間
  /vote <for|against|neutral>            即席投票
  /ballot <邏輯> <禮貌> <開放> <y|n>     結束辯論的正式評分（1–5，y 表示願意繼續）
  /mute <使用者ID>  /unmute <使用者ID>   主持人：靜音／解除靜音
  /kick <使用者ID>                       主持人：踢出
  /pause  /resume  /end                  主持人：暫停／恢復／結束直播
  /quit                                  離開
其他輸入會作為聊天訊息送出。`,
	SilenceUsage: true,
	RunE:         runInteractive,
}

// Execute 由 main.main() 呼叫
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "設定檔路徑（預設 $HOME/.debate-cli.yaml）")
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "伺服器位址")
	rootCmd.PersistentFlags().String("token", "", "JWT，可用 login 子指令取得")
	rootCmd.PersistentFlags().Duration("reconnect-base", time.Second, "重連退避的基礎間隔")
	rootCmd.PersistentFlags().Int("reconnect-attempts", 5, "重連次數上限")

	viper.BindPFlag(serverKey, rootCmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag(tokenKey, rootCmd.PersistentFlags().Lookup("token"))
	viper.BindPFlag(baseIntervalKey, rootCmd.PersistentFlags().Lookup("reconnect-base"))
	viper.BindPFlag(maxAttemptsKey, rootCmd.PersistentFlags().Lookup("reconnect-attempts"))
}

// initConfig 讀取設定檔與環境變數
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".debate-cli")
	}

	viper.SetEnvPrefix("DEBATE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "讀取設定檔失敗:", err)
		}
	}
}

func runInteractive(cmd *cobra.Command, args []string) error {
	token := viper.GetString(tokenKey)
	if token == "" {
		return errors.New("缺少 token：請先執行 debate-cli login，或以 --token 指定")
	}

	c, err := client.Dial(client.Options{
		URL:          wsURL(viper.GetString(serverKey)),
		Token:        token,
		BaseInterval: viper.GetDuration(baseIntervalKey),
		MaxAttempts:  viper.GetInt(maxAttemptsKey),
		OnState: func(s client.State) {
			fmt.Printf("— 連線狀態：%s\n", s)
		},
	})
	if err != nil {
		return fmt.Errorf("無法連上伺服器: %w", err)
	}
	defer c.Close()

	go printEvents(c)

	fmt.Println("已連線，輸入 /quit 離開；/join <房間ID> 加入房間")
	var currentRoom uint
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("❯ ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		if err := dispatch(c, &currentRoom, line); err != nil {
			if errors.Is(err, client.ErrClosed) {
				return errors.New("連線已終止")
			}
			fmt.Println("!", err)
		}
	}
}

// dispatch 解析一行輸入並呼叫對應的客戶端操作
func dispatch(c *client.Client, currentRoom *uint, line string) error {
	if !strings.HasPrefix(line, "/") {
		return c.SendChat(*currentRoom, line)
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/join":
		if len(fields) < 2 {
			return errors.New("用法：/join <房間ID> [debate|stream] [mod]")
		}
		roomID, err := parseID(fields[1])
		if err != nil {
			return err
		}
		kind := realtime.KindDebate
		moderator := false
		for _, arg := range fields[2:] {
			switch arg {
			case "debate", "stream":
				kind = realtime.RoomKind(arg)
			case "mod":
				moderator = true
			default:
				return fmt.Errorf("無法理解的參數 %q", arg)
			}
		}
		if err := c.JoinRoom(roomID, kind, moderator); err != nil {
			return err
		}
		*currentRoom = roomID
		return nil

	case "/leave":
		*currentRoom = 0
		return c.LeaveRoom()

	case "/vote":
		if len(fields) != 2 {
			return errors.New("用法：/vote <for|against|neutral>")
		}
		return c.LiveVote(*currentRoom, realtime.LiveVote(fields[1]))

	case "/ballot":
		if len(fields) != 5 {
			return errors.New("用法：/ballot <邏輯> <禮貌> <開放> <y|n>")
		}
		var scores [3]int
		for i, raw := range fields[1:4] {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("分數必須是 1–5 的整數: %q", raw)
			}
			scores[i] = v
		}
		return c.CastVote(*currentRoom, realtime.Ballot{
			Logic:      scores[0],
			Politeness: scores[1],
			Openness:   scores[2],
			Continue:   fields[4] == "y" || fields[4] == "yes",
		})

	case "/mute", "/unmute", "/kick":
		if len(fields) != 2 {
			return fmt.Errorf("用法：%s <使用者ID>", fields[0])
		}
		target, err := parseID(fields[1])
		if err != nil {
			return err
		}
		action := map[string]realtime.ActionKind{
			"/mute":   realtime.ActionMute,
			"/unmute": realtime.ActionUnmute,
			"/kick":   realtime.ActionKick,
		}[fields[0]]
		return c.ModeratorAction(*currentRoom, action, target)

	case "/pause":
		return c.ModeratorAction(*currentRoom, realtime.ActionPauseStream, 0)
	case "/resume":
		return c.ModeratorAction(*currentRoom, realtime.ActionResumeStream, 0)
	case "/end":
		return c.ModeratorAction(*currentRoom, realtime.ActionEndStream, 0)
	}
	return fmt.Errorf("未知的指令 %s", fields[0])
}

// printEvents 把伺服器推送的信封轉成可讀的訊息行
func printEvents(c *client.Client) {
	for env := range c.Events() {
		switch env.Type {
		case realtime.TypeRoomJoined:
			fmt.Printf("\n— 已加入房間 %d（%s），在線 %d 人\n", env.RoomID, env.Kind, env.ParticipantCount)
			if env.Phase != "" {
				fmt.Printf("  辯論階段：%s\n", env.Phase)
			}
			if env.Status != "" {
				fmt.Printf("  直播狀態：%s\n", env.Status)
			}
			for _, action := range env.Actions {
				fmt.Printf("  （重播）主持動作 %s 目標 %d\n", action.Kind, action.TargetID)
			}
		case realtime.TypeUserJoined:
			fmt.Printf("\n— 使用者 %d 加入，在線 %d 人\n", env.UserID, env.ParticipantCount)
		case realtime.TypeUserLeft:
			fmt.Printf("\n— 使用者 %d 離開，在線 %d 人\n", env.UserID, env.ParticipantCount)
		case realtime.TypeChatMessage:
			fmt.Printf("\n[%s] %d（%s）：%s\n", env.Timestamp.Format("15:04:05"), env.UserID, env.Role, env.Content)
		case realtime.TypeLiveVote:
			fmt.Printf("\n— 使用者 %d 即席投票：%s\n", env.UserID, env.Vote)
		case realtime.TypeVoteRequest:
			fmt.Println("\n— 回合已用盡，請用 /ballot 為對方評分")
		case realtime.TypePhaseChange:
			fmt.Printf("\n— 辯論階段變更：%s（%s）\n", env.Phase, env.Message)
		case realtime.TypeDebateResult:
			if env.Result != nil {
				fmt.Printf("\n— 辯論結果：%s\n", resultText(env.Result))
			}
		case realtime.TypeStreamUpdate:
			fmt.Printf("\n— 直播狀態：%s\n", env.Status)
		case realtime.TypeModeratorAction:
			fmt.Printf("\n— 主持動作：%s（目標 %d）\n", env.Action, env.TargetID)
		case realtime.TypeRoomState:
			// 全量快照只在加入時出現，略過不印
		case realtime.TypeError:
			fmt.Printf("\n! 伺服器拒絕：%s（%s）\n", env.Message, env.Code)
		}
		fmt.Print("❯ ")
	}
}

func resultText(r *realtime.DebateResult) string {
	var b strings.Builder
	if r.Continued {
		b.WriteString("雙方同意繼續，進入自由討論。")
	} else {
		b.WriteString("辯論結束。")
	}
	if r.ProponentBallot != nil {
		fmt.Fprintf(&b, " 正方評分 邏輯%d 禮貌%d 開放%d。",
			r.ProponentBallot.Logic, r.ProponentBallot.Politeness, r.ProponentBallot.Openness)
	}
	if r.OpponentBallot != nil {
		fmt.Fprintf(&b, " 反方評分 邏輯%d 禮貌%d 開放%d。",
			r.OpponentBallot.Logic, r.OpponentBallot.Politeness, r.OpponentBallot.Openness)
	}
	return b.String()
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("無效的 ID: %q", raw)
	}
	return uint(id), nil
}

// wsURL 把 HTTP 伺服器位址轉成 WebSocket 端點；已是 ws:// 形式則原樣使用
func wsURL(server string) string {
	switch {
	case strings.HasPrefix(server, "https://"):
		return "wss://" + strings.TrimPrefix(server, "https://") + "/api/ws"
	case strings.HasPrefix(server, "http://"):
		return "ws://" + strings.TrimPrefix(server, "http://") + "/api/ws"
	}
	return server
}
