package audio

func systemCommands() (CommandSet, error) {
	return OSAScriptCommands(), nil
}
