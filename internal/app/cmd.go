package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はWebhookサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker はリマインダーワーカーモードで起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandSeed はシードファイルから予定を投入することを示す。
	CommandSeed Command = "seed"
	// CommandImportCalendly はCalendlyから予定を取り込むことを示す。
	CommandImportCalendly Command = "import-calendly"
	// CommandImportMasterschool はMasterschoolから予定を取り込むことを示す。
	CommandImportMasterschool Command = "import-masterschool"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "worker":
		return CommandWorker
	case "migrate":
		return CommandMigrate
	case "seed":
		return CommandSeed
	case "import-calendly":
		return CommandImportCalendly
	case "import-masterschool":
		return CommandImportMasterschool
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
