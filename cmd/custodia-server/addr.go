package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodialabs/custodia/server/internal/ledger/address"
	"github.com/custodialabs/custodia/server/internal/ledger/types"
)

// newAddrCommand exposes address derivation offline, so client tooling can
// locate records without a round trip.
func newAddrCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addr",
		Short: "Derive record addresses from logical keys",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "admin <identity>",
			Short: "Address of an identity's admin record",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := types.ParseIdentity(args[0])
				if err != nil {
					return err
				}
				cmd.Println(address.ForAdmin(id))
				return nil
			},
		},
		&cobra.Command{
			Use:   "grant <identity>",
			Short: "Address of an identity's grant record",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := types.ParseIdentity(args[0])
				if err != nil {
					return err
				}
				cmd.Println(address.ForGrant(id))
				return nil
			},
		},
		&cobra.Command{
			Use:   "case <case-id>",
			Short: "Address of a case record",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cmd.Println(address.ForCase(args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "scene-log <case-address> <sequence>",
			Short: "Address of the Nth scene log of a case",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				caseAddr, seq, err := parseAddrSeq(args[0], args[1])
				if err != nil {
					return err
				}
				cmd.Println(address.ForSceneLog(caseAddr, seq))
				return nil
			},
		},
		&cobra.Command{
			Use:   "evidence <case-address> <evidence-id>",
			Short: "Address of an evidence item within a case",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				caseAddr, err := types.ParseAddress(args[0])
				if err != nil {
					return err
				}
				cmd.Println(address.ForEvidence(caseAddr, args[1]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "evidence-log <evidence-address> <sequence>",
			Short: "Address of the Nth custody log of an evidence item",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				evAddr, seq, err := parseAddrSeq(args[0], args[1])
				if err != nil {
					return err
				}
				cmd.Println(address.ForEvidenceLog(evAddr, seq))
				return nil
			},
		},
	)

	return cmd
}

func parseAddrSeq(addrArg, seqArg string) (types.Address, uint64, error) {
	addr, err := types.ParseAddress(addrArg)
	if err != nil {
		return types.Address{}, 0, err
	}
	seq, err := strconv.ParseUint(seqArg, 10, 64)
	if err != nil {
		return types.Address{}, 0, fmt.Errorf("parse sequence: %w", err)
	}
	return addr, seq, nil
}
