package main

import (
	"github.com/shouni/go-claymation-kit/cmd"
)

// main は CLI の起動だけを行い、処理はすべて cmd パッケージに任せるのだ。
func main() {
	cmd.Execute()
}
