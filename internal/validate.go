package internal

import (
	"math"
	"regexp"
	"strings"
)

// dangerousCommands are matched case-insensitively at word boundaries,
// so "sudo" is rejected but "pseudo" is not.
var dangerousCommands = []string{
	"rm -rf /",
	"rm -rf /*",
	"rm -rf ~",
	"rm -rf .*",
	"dd if=",
	"mkfs",
	"fdisk",
	"format",
	"shutdown",
	"reboot",
	"halt",
	"poweroff",
	"systemctl stop",
	"service stop",
	"killall",
	"pkill -9",
	"chmod 777",
	"chown root",
	"su root",
	"sudo",
	"passwd",
	"usermod",
	"userdel",
	"groupmod",
	"mount",
	"umount",
	"fsck",
	"e2fsck",
}

var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`rm\s+-rf\s+/?`),
	regexp.MustCompile(`rm\s+-rf\s+\*`),
	regexp.MustCompile(`rm\s+-rf\s+\.\*`),
	regexp.MustCompile(`>\s*/dev/`),
	regexp.MustCompile(`\|.*sh\s*$`),
	regexp.MustCompile(`;\s*rm\s+`),
	regexp.MustCompile("`.*rm.*`"),
	regexp.MustCompile(`\$\(.*rm.*\)`),
	regexp.MustCompile(`curl.*\|\s*sh`),
	regexp.MustCompile(`wget.*\|\s*sh`),
}

var commandChars = regexp.MustCompile(`^[a-zA-Z0-9\s\-_./:'"|&;<>()\[\]{}?*+^$@#%=!,~]+$`)

// Validator checks tool arguments before they reach the shell session.
type Validator struct {
	cfg    ValidationConfig
	denied []*regexp.Regexp
}

func NewValidator(cfg ValidationConfig) *Validator {
	denied := make([]*regexp.Regexp, 0, len(dangerousCommands)+len(dangerousPatterns))
	for _, phrase := range dangerousCommands {
		denied = append(denied, phraseRegexp(phrase))
	}
	denied = append(denied, dangerousPatterns...)
	return &Validator{cfg: cfg, denied: denied}
}

func phraseRegexp(phrase string) *regexp.Regexp {
	expr := `(?:^|[^a-z0-9_-])` + regexp.QuoteMeta(phrase)
	last := phrase[len(phrase)-1]
	if last >= 'a' && last <= 'z' || last >= '0' && last <= '9' {
		expr += `(?:$|[^a-z0-9_])`
	}
	return regexp.MustCompile(expr)
}

// Command trims and checks a command for write_to_terminal.
func (v *Validator) Command(command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", invalid("command", "must be a non-empty string")
	}
	if len(command) > v.cfg.MaxCommandLength {
		return "", invalid("command", "too long (max %d characters)", v.cfg.MaxCommandLength)
	}

	lower := strings.ToLower(command)
	for _, re := range v.denied {
		if re.MatchString(lower) {
			return "", invalid("command", "contains potentially dangerous operations")
		}
	}

	if !commandChars.MatchString(command) {
		return "", invalid("command", "contains invalid characters")
	}
	return command, nil
}

// Lines checks linesOfOutput, applying the default when it is absent.
func (v *Validator) Lines(lines *float64) (int, error) {
	if lines == nil {
		return v.cfg.DefaultLines, nil
	}
	n := *lines
	if n != math.Trunc(n) || math.IsInf(n, 0) {
		return 0, invalid("linesOfOutput", "must be a whole number")
	}
	if n < 1 || n > float64(v.cfg.MaxLines) {
		return 0, invalid("linesOfOutput", "must be between 1 and %d", v.cfg.MaxLines)
	}
	return int(n), nil
}

// ControlLetter accepts one ASCII letter in either case and returns it upper-cased.
func (v *Validator) ControlLetter(letter string) (string, error) {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return "", invalid("letter", "must be a single letter (A-Z)")
	}
	return letter, nil
}
