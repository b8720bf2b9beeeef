package cmd

import (
	"fmt"
)

const banner = `
 __          __                      _       _
 \ \        / /                     (_)     | |
  \ \  /\  / /_ _ _   _ _ __   ___  _ _ __ | |_
   \ \/  \/ / _` + "`" + ` | | | | '_ \ / _ \| | '_ \| __|
    \  /\  / (_| | |_| | |_) | (_) | | | | | |_
     \/  \/ \__,_|\__, | .__/ \___/|_|_| |_|\__|
                   __/ | |
                  |___/|_|
`

func printBanner() {
	fmt.Printf("\x1b[34m%s\x1b[0m", banner)
	fmt.Printf("\x1b[32m  Navigation Orchestration Service - Version %s\x1b[0m\n\n", Version)
}
