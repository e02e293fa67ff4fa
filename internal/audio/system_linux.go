package audio

func systemCommands() (CommandSet, error) {
	return PactlCommands(), nil
}
