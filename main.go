// main is the entry point for the trustscore CLI.
package main

import (
	"github.com/huangsam/trustscore/cmd"
	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Cannot stop profiling", stopErr)
	}
	iocache.CloseStores()

	if err != nil {
		contract.LogFatal("Error", err)
	}
}
