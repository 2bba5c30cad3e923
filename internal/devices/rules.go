package devices

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"
)

// 运营可维护的分类规则文件，例如：
//
//	rules:
//	  - base_model: Samsung Galaxy S26 Ultra
//	    when: model.contains("SAM S948U")
//	    aliases: [Galaxy S26 Ultra, S26 Ultra, S26U]
//	  - skip: true
//	    when: model.startsWith("DEMO ")
//
// when 是 CEL 表达式，变量 model 为大写后的目录型号。

type ruleFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	BaseModel string   `yaml:"base_model"`
	When      string   `yaml:"when"`
	Aliases   []string `yaml:"aliases"`
	Skip      bool     `yaml:"skip"`
}

// CustomRule 已编译的自定义规则
type CustomRule struct {
	BaseModel string
	Aliases   []string
	Skip      bool
	Expr      string
	prg       cel.Program
}

// Match evaluates the predicate; evaluation errors count as no match.
func (r CustomRule) Match(upper string) bool {
	if r.prg == nil {
		return false
	}
	out, _, err := r.prg.Eval(map[string]any{"model": upper})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// LoadRuleFile 读取并编译自定义规则；文件不存在返回 ErrSourceNotFound
func LoadRuleFile(path string) ([]CustomRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Source: path, Err: ErrSourceNotFound}
		}
		return nil, &LoadError{Source: path, Err: err}
	}
	rules, err := ParseRules(data)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	return rules, nil
}

// ParseRules 解析 YAML 规则并编译 CEL 条件
func ParseRules(data []byte) ([]CustomRule, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	env, err := cel.NewEnv(cel.Variable("model", cel.StringType))
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	out := make([]CustomRule, 0, len(f.Rules))
	for i, s := range f.Rules {
		s.BaseModel = strings.TrimSpace(s.BaseModel)
		if strings.TrimSpace(s.When) == "" {
			return nil, fmt.Errorf("rule %d: empty when", i+1)
		}
		if s.BaseModel == "" && !s.Skip {
			return nil, fmt.Errorf("rule %d: base_model required unless skip", i+1)
		}
		ast, iss := env.Compile(s.When)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, iss.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		out = append(out, CustomRule{
			BaseModel: s.BaseModel,
			Aliases:   s.Aliases,
			Skip:      s.Skip,
			Expr:      s.When,
			prg:       prg,
		})
	}
	return out, nil
}
