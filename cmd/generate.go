package cmd

import (
	"context"
	"errors"
	"fmt"
	"kling-studio/app/config"
	"kling-studio/app/kling"
	"kling-studio/app/logger"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var generateOpts struct {
	prompt      string
	duration    string
	aspectRatio string
	model       string
	interval    time.Duration
	timeout     time.Duration
	output      string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "提交文生视频任务并等待完成",
	Example: `  kling-studio generate --prompt "日落时分飞行汽车穿梭的未来城市"
  kling-studio generate -p "海浪拍打礁石" -d 10 -a 9:16 -o wave.mp4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg := config.Load()
		log := logger.New(cfg.Log)
		defer log.Close()

		duration, err := kling.ParseDuration(generateOpts.duration)
		if err != nil {
			return err
		}
		ratio, err := kling.ParseAspectRatio(generateOpts.aspectRatio)
		if err != nil {
			return err
		}
		model := generateOpts.model
		if model == "" {
			model = cfg.Kling.Model
		}
		interval := cfg.Kling.PollInterval
		if cmd.Flags().Changed("interval") {
			interval = generateOpts.interval
		}
		timeout := cfg.Kling.WaitTimeout
		if cmd.Flags().Changed("timeout") {
			timeout = generateOpts.timeout
		}

		client := kling.New(kling.Options{
			APIKey:  cfg.Kling.APIKey,
			BaseURL: cfg.Kling.BaseURL,
			Timeout: cfg.Kling.RequestTimeout,
		})
		defer client.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		req := kling.SubmitRequest{
			Prompt:      generateOpts.prompt,
			Duration:    duration,
			AspectRatio: ratio,
			Model:       model,
		}

		result, err := kling.Generate(ctx, client, req, kling.WaitOptions{
			Interval: interval,
			Timeout:  timeout,
			OnPoll: func(attempt int, res *kling.TaskResult) {
				if attempt == 1 {
					log.Infof("任务已创建: %s，正在生成视频（通常需要 1-5 分钟）", res.TaskID)
				}
				log.Infof("第 %d 次查询: %s", attempt, res.Status)
			},
		})
		if err != nil {
			if result != nil {
				log.Warnf("任务 %s 未完成", result.TaskID)
			}
			return describeCLIError(err)
		}
		videoURL := result.VideoURL

		fmt.Fprintln(cmd.OutOrStdout(), videoURL)

		if generateOpts.output != "" {
			size, err := client.DownloadVideo(ctx, videoURL, generateOpts.output)
			if err != nil {
				return fmt.Errorf("下载视频失败: %w", err)
			}
			log.Infof("视频已保存到 %s (%d 字节)", generateOpts.output, size)
		}
		return nil
	},
}

// describeCLIError 为常见错误补充处理建议
func describeCLIError(err error) error {
	switch {
	case errors.Is(err, kling.ErrMissingAPIKey):
		return fmt.Errorf("%w，请设置环境变量 KLING_API_KEY 或配置 kling.api_key", err)
	case errors.Is(err, kling.ErrEmptyPrompt):
		return fmt.Errorf("%w，请使用 --prompt 指定", err)
	case errors.Is(err, context.Canceled):
		return errors.New("已取消")
	default:
		return err
	}
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&generateOpts.prompt, "prompt", "p", "", "视频描述")
	f.StringVarP(&generateOpts.duration, "duration", "d", "5", "时长（秒）: 5 或 10")
	f.StringVarP(&generateOpts.aspectRatio, "aspect-ratio", "a", "16:9", "画面比例: 16:9、9:16 或 1:1")
	f.StringVarP(&generateOpts.model, "model", "m", "", "模型名称 (默认使用配置 kling.model)")
	f.DurationVar(&generateOpts.interval, "interval", kling.DefaultPollInterval, "轮询间隔")
	f.DurationVar(&generateOpts.timeout, "timeout", 0, "最长等待时间，0 表示一直等待")
	f.StringVarP(&generateOpts.output, "output", "o", "", "下载视频到本地文件")
	rootCmd.AddCommand(generateCmd)
}
