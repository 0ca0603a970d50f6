package main

import (
	"fmt"

	"github.com/holmberd/go-fpool"
	"github.com/spf13/cobra"
)

var (
	layoutBufferSize int
	layoutItemSize   int
)

func init() {
	cmd := newLayoutCmd()
	cmd.Flags().IntVar(&layoutBufferSize, "buffer-size", 4096, "Buffer size in bytes")
	cmd.Flags().IntVar(&layoutItemSize, "item-size", fpool.DefaultItemSize, "Block size in bytes")
	rootCmd.AddCommand(cmd)
}

func newLayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Show how a buffer is partitioned into blocks",
		Long: `The layout command reports how many blocks a buffer of the given size
yields when added to a pool, and how many trailing bytes are left unused.

Example:
  fpoolctl layout --buffer-size 64 --item-size 16
  fpoolctl layout --buffer-size 1000 --item-size 24 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := computeLayout(layoutBufferSize, layoutItemSize)
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), l)
			}
			if !l.Accepted {
				fmt.Fprintf(cmd.OutOrStdout(), "rejected: %s\n", l.Reason)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d blocks of %d bytes, %d bytes unused\n", l.Blocks, l.ItemSize, l.Unused)
			return nil
		},
	}
}

type layout struct {
	BufferSize int    `json:"buffer_size"`
	ItemSize   int    `json:"item_size"`
	Accepted   bool   `json:"accepted"`
	Reason     string `json:"reason,omitempty"`
	Blocks     int    `json:"blocks"`
	Unused     int    `json:"unused"`
}

func computeLayout(bufferSize, itemSize int) layout {
	l := layout{BufferSize: bufferSize, ItemSize: itemSize}
	switch {
	case bufferSize < 0:
		l.Reason = "buffer size must not be negative"
		return l
	case itemSize < fpool.MinItemSize:
		l.Reason = fmt.Sprintf("item size is smaller than the minimum %d", fpool.MinItemSize)
		return l
	case bufferSize < itemSize:
		l.Reason = "buffer cannot hold a single block"
		return l
	case bufferSize/itemSize > fpool.MaxBlocks:
		l.Reason = fmt.Sprintf("buffer holds more than the maximum %d blocks", fpool.MaxBlocks)
		return l
	}

	l.Accepted = true
	l.Blocks = bufferSize / itemSize
	l.Unused = bufferSize % itemSize
	return l
}
