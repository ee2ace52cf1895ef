package chat

import (
	"fmt"

	"github.com/samber/lo"
)

const commandPrefix = "/"

const (
	cmdQuit  = "/quit"
	cmdUsers = "/users"
	cmdHelp  = "/help"
)

const (
	msgPrompt     = "Enter Your username"
	msgEmptyName  = "username can't be empty!"
	msgWelcome    = ":: Welcome to the chat ::"
	msgGoodbye    = "GoodBye!"
	msgHelpHeader = "Commands::"
)

var unknownCommandLines = []string{"Unknown command.", "Type /help for a guide."}

type commandInfo struct {
	name  string
	usage string
}

var commandTable = []commandInfo{
	{name: cmdQuit, usage: "Leave the server"},
	{name: cmdUsers, usage: "Get the count of users online"},
	{name: cmdHelp, usage: "For Guide"},
}

func helpLines() []string {
	return append([]string{msgHelpHeader}, lo.Map(commandTable, func(c commandInfo, _ int) string {
		return fmt.Sprintf("%s - %s", c.name, c.usage)
	})...)
}

func usersLine(count int) string {
	return fmt.Sprintf("%d users online", count)
}

// runCommand executes a slash command and reports whether the session should end.
func (s *session) runCommand(line string) (bool, error) {
	switch line {
	case cmdQuit:
		return true, s.writer.writeLines(msgGoodbye)
	case cmdUsers:
		return false, s.writer.writeLines(usersLine(s.room.Directory().Count()))
	case cmdHelp:
		return false, s.writer.writeLines(helpLines()...)
	default:
		return false, s.writer.writeLines(unknownCommandLines...)
	}
}
