package cmd

import (
	"fmt"
	"io"
)

// Completion writes the completion script for shell to w
func Completion(w io.Writer, shell string) error {
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletion)
	case "zsh":
		fmt.Fprint(w, zshCompletion)
	case "fish":
		fmt.Fprint(w, fishCompletion)
	default:
		return fmt.Errorf("unknown shell: %s (supported: bash, zsh, fish)", shell)
	}
	return nil
}

const bashCompletion = `_varicrypt() {
    local cur prev words cword
    _init_completion || return

    local commands="encode decode verify send receive serve compact keyring completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    case "${words[1]}" in
        encode)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "text image audio" -- "$cur"))
                return
            fi
            case "$prev" in
                --carrier|-o|--output)
                    _filedir
                    ;;
                --format)
                    COMPREPLY=($(compgen -W "symbols hex" -- "$cur"))
                    ;;
                *)
                    COMPREPLY=($(compgen -W "-m --message --format --carrier --fixed-size -o --output --force" -- "$cur"))
                    ;;
            esac
            ;;
        decode|verify)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "text image audio" -- "$cur"))
                return
            fi
            _filedir
            ;;
        send|receive)
            COMPREPLY=($(compgen -W "-m --message --format" -- "$cur"))
            ;;
        serve)
            COMPREPLY=($(compgen -W "--addr" -- "$cur"))
            ;;
        keyring)
            COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _varicrypt varicrypt
`

const zshCompletion = `#compdef varicrypt

_varicrypt() {
    local -a commands
    commands=(
        'encode:Encrypt a message into text, an image or audio'
        'decode:Recover a message from text, an image or audio'
        'verify:Decode a file and compare with the expected message'
        'send:Encrypt a message and store it for one-time pickup'
        'receive:Fetch and decrypt a stored message'
        'serve:Serve the local message store over HTTP'
        'compact:Purge expired messages and compact the local store'
        'keyring:Manage password in OS keyring'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'varicrypt commands' commands
            ;;
        args)
            case "${words[2]}" in
                encode)
                    _arguments \
                        '2:medium:(text image audio)' \
                        '--message[Message to encrypt]:message:' \
                        '--format[Text format]:format:(symbols hex)' \
                        '--carrier[Carrier file]:file:_files' \
                        '--fixed-size[Never resize the carrier]' \
                        '--output[Output file]:file:_files' \
                        '--force[Overwrite the output file]'
                    ;;
                decode|verify)
                    _arguments \
                        '2:medium:(text image audio)' \
                        '*:file:_files'
                    ;;
                serve)
                    _arguments '--addr[Listen address]:address:'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_varicrypt "$@"
`

const fishCompletion = `# varicrypt fish completions

set -l commands encode decode verify send receive serve compact keyring completion
set -l media text image audio

complete -c varicrypt -f

# Commands
complete -c varicrypt -n "not __fish_seen_subcommand_from $commands" -a encode -d 'Encrypt a message'
complete -c varicrypt -n "not __fish_seen_subcommand_from $commands" -a decode -d 'Recover a message'
complete -c varicrypt -n "not __fish_seen_subcommand_from $commands" -a verify -d 'Compare with expected message'
complete -c varicrypt -n "not __fish_seen_subcommand_from $commands" -a send -d 'Store a message for pickup'
complete -c varicrypt -n "not __fish_seen_subcommand_from $commands" -a receive -d 'Fetch a stored message'
complete -c varicrypt -n "not __fish_seen_subcommand_from $commands" -a serve -d 'Serve the local store'
complete -c varicrypt -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact the local store'
complete -c varicrypt -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage password in OS keyring'
complete -c varicrypt -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# media
complete -c varicrypt -n "__fish_seen_subcommand_from encode decode verify; and not __fish_seen_subcommand_from $media" -a "$media"

# encode flags
complete -c varicrypt -n "__fish_seen_subcommand_from encode send" -s m -l message -d 'Message to encrypt'
complete -c varicrypt -n "__fish_seen_subcommand_from encode send receive decode" -l format -a "symbols hex" -d 'Text format'
complete -c varicrypt -n "__fish_seen_subcommand_from encode" -l carrier -F -d 'Carrier file'
complete -c varicrypt -n "__fish_seen_subcommand_from encode" -l fixed-size -d 'Never resize the carrier'
complete -c varicrypt -n "__fish_seen_subcommand_from encode" -s o -l output -F -d 'Output file'
complete -c varicrypt -n "__fish_seen_subcommand_from encode" -l force -d 'Overwrite the output file'

# decode and verify files
complete -c varicrypt -n "__fish_seen_subcommand_from decode verify" -F
complete -c varicrypt -n "__fish_seen_subcommand_from verify" -l expect -F -d 'Expected message file'

# serve
complete -c varicrypt -n "__fish_seen_subcommand_from serve" -l addr -d 'Listen address'

# keyring subcommands
complete -c varicrypt -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# completion completions
complete -c varicrypt -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
