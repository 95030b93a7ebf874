package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/hannes/pii-mask/pii/detectors"
)

// entityDescriptions lists the supported entity types with their
// Japanese descriptions, in display order.
var entityDescriptions = [][2]string{
	{detectors.LabelPerson, "人名"},
	{detectors.LabelPhoneNumber, "電話番号"},
	{detectors.LabelEmailAddress, "メールアドレス"},
	{detectors.LabelAddress, "住所"},
	{detectors.LabelBirthdate, "生年月日"},
	{detectors.LabelCreditCard, "クレジットカード番号"},
	{detectors.LabelURL, "URL"},
	{detectors.LabelLocation, "場所"},
	{detectors.LabelDateTime, "日付・時間"},
	{detectors.LabelIPAddress, "IPアドレス"},
	{detectors.LabelJPMyNumber, "マイナンバー（個人番号）"},
	{detectors.LabelJPDriverLicense, "日本の運転免許証番号"},
	{detectors.LabelJPBankAccount, "日本の銀行口座番号"},
	{detectors.LabelJPPostalCode, "日本の郵便番号"},
	{detectors.LabelUSSSN, "米国社会保障番号"},
}

var listEntitiesCmd = &cobra.Command{
	Use:   "list-entities",
	Short: "List supported entity types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
		cellStyle := lipgloss.NewStyle().Padding(0, 1)

		t := table.New().
			Border(lipgloss.NormalBorder()).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			}).
			Headers("エンティティタイプ", "説明")
		for _, e := range entityDescriptions {
			t.Row(e[0], e[1])
		}

		fmt.Println(t.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listEntitiesCmd)
}
