package bot

import (
	"strings"

	"github.com/hitoshi/calman/internal/model"
)

// Registry はコマンド名→コマンド定義の静的テーブル。
// 起動時に1回構築され、以後イミュータブルとして扱う。
// ヘルプ一覧の表示順を保つため、登録順を保持する。
type Registry struct {
	order    []string
	commands map[string]*model.Command
}

// NewRegistry は空のRegistryを生成する。
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*model.Command),
	}
}

// Register はコマンドを登録する。名前は小文字に正規化される。
func (r *Registry) Register(cmd model.Command) {
	name := strings.ToLower(cmd.Name)
	cmd.Name = name
	if _, exists := r.commands[name]; !exists {
		r.order = append(r.order, name)
	}
	r.commands[name] = &cmd
}

// Get は名前でコマンドを検索する。名前の大文字小文字は区別しない。
func (r *Registry) Get(name string) (*model.Command, bool) {
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// All は登録順でコマンド一覧を返す。
func (r *Registry) All() []*model.Command {
	out := make([]*model.Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.commands[name])
	}
	return out
}
