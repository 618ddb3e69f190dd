// Package shop — сценарии магазина в чате: меню, покупка, продление, обмен баллов.
// keyboards.go собирает inline-клавиатуры. Транспорт (telego) переводит их в свой формат.
package shop

import (
	"fmt"

	"dimzmods.my.id/license-bot/internal/config"
	"dimzmods.my.id/license-bot/internal/features/licenses"
)

// Button — кнопка: либо callback-данные, либо ссылка.
type Button struct {
	Text string
	Data string
	URL  string
}

// Keyboard — строки кнопок.
type Keyboard [][]Button

func cb(text, data string) Button { return Button{Text: text, Data: data} }

func link(text, url string) Button { return Button{Text: text, URL: url} }

func mainMenuKeyboard() Keyboard {
	return Keyboard{
		{cb("🛒 Beli Lisensi Baru", DataNewOrder)},
		{cb("⏰ Extend Masa Aktif", DataExtendUser), cb("🎁 Tukar Point", DataRedeemPoints)},
		{cb("ℹ️ Bantuan", DataHelp)},
	}
}

// backKeyboard — «Kembali» на previous (если задан) и «Menu Utama».
func backKeyboard(previous string) Keyboard {
	var kb Keyboard
	if previous != "" {
		kb = append(kb, []Button{cb("↩️ Kembali", previous)})
	}
	return append(kb, []Button{cb("🏠 Menu Utama", DataMainMenu)})
}

func gameKeyboard(prefix, back string) Keyboard {
	return Keyboard{
		{
			cb("🎮 FREE FIRE", prefix+string(licenses.GameFreeFire)),
			cb("⚡ FREE FIRE MAX", prefix+string(licenses.GameFreeFireMax)),
		},
		{cb("↩️ Kembali", back)},
	}
}

// durationKeyboard — длительности из прайса по три в ряд.
func durationKeyboard(catalog *config.Catalog, data func(days int) string, back string) Keyboard {
	var (
		kb  Keyboard
		row []Button
	)
	for _, d := range catalog.PurchaseDurations() {
		price, _ := catalog.Price(d)
		row = append(row, cb(fmt.Sprintf("%d Hari - %dk", d, price/1000), data(d)))
		if len(row) == 3 {
			kb = append(kb, row)
			row = nil
		}
	}
	if len(row) > 0 {
		kb = append(kb, row)
	}
	return append(kb, []Button{cb("↩️ Kembali", back), cb("🏠 Menu Utama", DataMainMenu)})
}

func keyTypeKeyboard(game licenses.Game, days int) Keyboard {
	return Keyboard{
		{
			cb("🎲 RANDOM KEY", fmt.Sprintf("keytype_%s_%d_random", game, days)),
			cb("✍️ MANUAL KEY", fmt.Sprintf("keytype_%s_%d_manual", game, days)),
		},
		{cb("↩️ Kembali", "type_"+string(game)), cb("🏠 Menu Utama", DataMainMenu)},
	}
}

func paymentKeyboard(checkData string) Keyboard {
	return Keyboard{
		{cb("🔍 Cek Status Manual", checkData)},
		{cb("❌ Batalkan Pesanan", DataCancelOrder)},
	}
}

func pendingKeyboard(checkData string) Keyboard {
	return Keyboard{
		{cb("🔄 Cek Lagi", checkData)},
		{cb("❌ Batalkan", DataCancelOrder)},
	}
}

func redeemKeyboard(catalog *config.Catalog) Keyboard {
	var (
		kb  Keyboard
		row []Button
	)
	for _, d := range catalog.RedeemDurations() {
		row = append(row, cb(fmt.Sprintf("%d Hari - %d points", d, catalog.RedeemCost(d)), fmt.Sprintf("redeem_%d", d)))
		if len(row) == 2 {
			kb = append(kb, row)
			row = nil
		}
	}
	if len(row) > 0 {
		kb = append(kb, row)
	}
	return append(kb, []Button{cb("↩️ Kembali", DataMainMenu)})
}

func pointsKeyboard() Keyboard {
	return Keyboard{
		{cb("🎁 Tukar Point", DataRedeemPoints)},
		{cb("🛒 Beli Lisensi", DataNewOrder)},
		{cb("🏠 Menu Utama", DataMainMenu)},
	}
}

func purchaseDoneKeyboard(installURL string) Keyboard {
	return Keyboard{
		{link("📁 File & Cara Pasang", installURL)},
		{cb("🔄 Beli Lagi", DataNewOrder), cb("🎁 Tukar Point", DataRedeemPoints)},
		{cb("🏠 Menu Utama", DataMainMenu)},
	}
}

func extendDoneKeyboard(installURL string) Keyboard {
	return Keyboard{
		{link("📁 File & Cara Pasang", installURL)},
		{cb("🔄 Extend Lagi", DataExtendUser), cb("🎁 Tukar Point", DataRedeemPoints)},
		{cb("🔄 Beli Baru", DataNewOrder)},
		{cb("🏠 Menu Utama", DataMainMenu)},
	}
}

func redeemDoneKeyboard(installURL string) Keyboard {
	return Keyboard{
		{link("📁 File & Cara Pasang", installURL)},
		{cb("🎁 Tukar Lagi", DataRedeemPoints), cb("🛒 Beli Lisensi", DataNewOrder)},
		{cb("🏠 Menu Utama", DataMainMenu)},
	}
}
