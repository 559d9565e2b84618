package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"github.com/kube-rca/incident-responder/internal/config"
	"github.com/kube-rca/incident-responder/internal/handler"
	"github.com/kube-rca/incident-responder/internal/model"
	"github.com/kube-rca/incident-responder/internal/runbook"
	"github.com/kube-rca/incident-responder/internal/service"
	"github.com/spf13/cobra"
)

var (
	envFile   string
	eventFile string
)

var rootCmd = &cobra.Command{
	Use:   "incident-responder",
	Short: "CloudWatch 알람을 분류하고 AI 인시던트 리포트를 게시",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadEnvFile(envFile)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "POST /webhook/sns 로 SNS 알림을 받는 HTTP 서버 실행",
	RunE:  runServe,
}

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "AWS Lambda 런타임에서 SNS 이벤트 처리",
	RunE:  runLambda,
}

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "SNS 이벤트 JSON 파일 하나를 처리하고 응답 출력",
	RunE:  runInvoke,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "환경변수 파일 (없으면 무시)")
	invokeCmd.Flags().StringVar(&eventFile, "event", "-", "SNS 이벤트 JSON 경로 (- 는 stdin)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lambdaCmd)
	rootCmd.AddCommand(invokeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadEnvFile - .env 로드 (파일이 없으면 무시, 이미 설정된 환경변수는 덮어쓰지 않음)
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// newDispatcher - 설정, runbook 카탈로그, Dispatcher를 한 번만 생성
func newDispatcher() (config.Config, *service.Dispatcher, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}

	catalog, err := runbook.Load(cfg.Runbook.File)
	if err != nil {
		return config.Config{}, nil, err
	}

	dispatcher, err := service.NewDispatcherFromConfig(cfg, catalog)
	if err != nil {
		return config.Config{}, nil, err
	}

	log.Printf("Initialized incident responder (environment=%s, llm_provider=%s, runbooks=%v)",
		cfg.Environment, cfg.LLM.Provider, catalog.Categories())
	return cfg, dispatcher, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, dispatcher, err := newDispatcher()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: handler.NewRouter(cfg.Server, dispatcher),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	// 진행 중인 조사는 LLM timeout보다 길게 기다림
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	log.Printf("Shutting down server")
	return srv.Shutdown(shutdownCtx)
}

func runLambda(_ *cobra.Command, _ []string) error {
	_, dispatcher, err := newDispatcher()
	if err != nil {
		return err
	}

	// 처리 결과는 statusCode로 전달 (error를 반환하면 SNS 재시도가 발생)
	lambda.Start(func(ctx context.Context, event events.SNSEvent) (model.InvocationResponse, error) {
		return dispatcher.Process(ctx, event), nil
	})
	return nil
}

func runInvoke(cmd *cobra.Command, _ []string) error {
	_, dispatcher, err := newDispatcher()
	if err != nil {
		return err
	}

	var r io.Reader = cmd.InOrStdin()
	if eventFile != "-" {
		f, err := os.Open(eventFile)
		if err != nil {
			return fmt.Errorf("failed to open event file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var event events.SNSEvent
	if err := json.NewDecoder(r).Decode(&event); err != nil {
		return fmt.Errorf("failed to decode SNS event: %w", err)
	}

	resp := dispatcher.Process(cmd.Context(), event)
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("invocation finished with status %d", resp.StatusCode)
	}
	return nil
}
