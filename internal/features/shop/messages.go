// Package shop — messages.go: HTML-тексты сообщений (на индонезийском, как видит покупатель).
package shop

import (
	"fmt"
	"html"
	"strings"
	"time"

	"dimzmods.my.id/license-bot/internal/common"
	"dimzmods.my.id/license-bot/internal/config"
	"dimzmods.my.id/license-bot/internal/features/licenses"
	"dimzmods.my.id/license-bot/internal/features/orders"
	"dimzmods.my.id/license-bot/internal/features/payment"
)

const credentialFormatHint = "Format: <code>/username-password</code>\nContoh: <code>/kambing-1</code>"

// Renderer форматирует сообщения. Даты — в поясе loc.
type Renderer struct {
	catalog *config.Catalog
	loc     *time.Location
	support string
}

// NewRenderer создаёт форматтер сообщений.
func NewRenderer(catalog *config.Catalog, loc *time.Location, support string) *Renderer {
	return &Renderer{catalog: catalog, loc: loc, support: support}
}

func gameTitle(g licenses.Game) string {
	return strings.ToUpper(g.DisplayName())
}

func keyTypeTitle(kt orders.KeyType) string {
	if kt == orders.KeyManual {
		return "MANUAL"
	}
	return "RANDOM"
}

func (r *Renderer) date(t time.Time) string {
	return common.FormatDate(t, r.loc) + " WIB"
}

func (r *Renderer) timeoutMinutes() int {
	return int(r.catalog.OrderTimeout() / time.Minute)
}

func (r *Renderer) Welcome(firstName string, balance int64) string {
	if firstName == "" {
		firstName = "User"
	}
	minPrice, _ := r.catalog.Price(r.catalog.PurchaseDurations()[0])
	return fmt.Sprintf("🎮 <b>Selamat Datang, %s!</b>\n\n", html.EscapeString(firstName)) +
		"✨ <b>BOT PEMBELIAN LISENSI FREE FIRE</b> ✨\n\n" +
		fmt.Sprintf("💰 <b>Point Anda:</b> %d points\n\n", balance) +
		"🛒 <b>Fitur yang tersedia:</b>\n" +
		"• Beli lisensi baru (Random/Manual)\n" +
		"• Extend masa aktif akun\n" +
		"• Tukar point dengan lisensi gratis\n" +
		"• Support Free Fire &amp; Free Fire MAX\n" +
		"• Pembayaran QRIS otomatis\n\n" +
		fmt.Sprintf("💰 <b>Harga mulai dari %s</b>\n", common.FormatCurrency(minPrice)) +
		"🎁 <b>Dapatkan point untuk setiap pembelian!</b>\n\n" +
		fmt.Sprintf("⏰ <b>Pembayaran otomatis terdeteksi dalam %d menit!</b>\n\n", r.timeoutMinutes()) +
		"Silakan pilih menu di bawah:"
}

func (r *Renderer) MainMenu(balance int64) string {
	return "🏠 <b>Menu Utama</b>\n\n" +
		fmt.Sprintf("💰 <b>Point Anda:</b> %d points\n\n", balance) +
		"Silakan pilih menu yang diinginkan:"
}

func (r *Renderer) Help(balance int64) string {
	return "ℹ️ <b>BANTUAN</b>\n\n" +
		fmt.Sprintf("💰 <b>Point Anda:</b> %d points\n\n", balance) +
		"📖 <b>Cara Penggunaan:</b>\n" +
		"1. Pilih 'Beli Lisensi Baru' untuk pembelian baru\n" +
		"2. Pilih 'Extend Masa Aktif' untuk memperpanjang\n" +
		"3. Pilih 'Tukar Point' untuk lisensi gratis\n" +
		"4. Ikuti instruksi yang diberikan\n\n" +
		"🎁 <b>Sistem Point:</b>\n" +
		"• Dapatkan point dari setiap pembelian\n" +
		fmt.Sprintf("• %d points = 1 hari lisensi gratis\n", r.catalog.PointsPerDay()) +
		"• Point tidak memiliki masa kedaluwarsa\n\n" +
		"⏰ <b>Pembayaran Otomatis:</b>\n" +
		fmt.Sprintf("• QR berlaku selama %d menit\n", r.timeoutMinutes()) +
		fmt.Sprintf("• Cek pembayaran otomatis setiap %d detik\n\n", int(r.catalog.CheckInterval()/time.Second)) +
		"❓ <b>Pertanyaan?</b>\n" +
		"Hubungi admin jika ada kendala " + html.EscapeString(r.support)
}

func (r *Renderer) SelectGame() string {
	return "👋 <b>Halo!</b>\n\nSilakan pilih jenis Free Fire yang ingin Anda beli:"
}

func (r *Renderer) SelectDuration(g licenses.Game) string {
	return fmt.Sprintf("💰 <b>Pilih Durasi Lisensi %s:</b>\n\nSilakan pilih durasi:", gameTitle(g))
}

func (r *Renderer) SelectKeyType(g licenses.Game) string {
	return fmt.Sprintf("🔑 <b>Pilih Tipe Key untuk %s:</b>\n\n", gameTitle(g)) +
		"🎲 <b>RANDOM KEY</b>\n" +
		"• Username &amp; password digenerate otomatis\n" +
		"• Format: 2 huruf + 2 angka (Username), 2 angka (Password)\n\n" +
		"✍️ <b>MANUAL KEY</b>\n" +
		"• Input username &amp; password manual\n" +
		"• Format: <code>/username-password</code>\n\n" +
		"Silakan pilih tipe key:"
}

func (r *Renderer) ManualInstruction() string {
	return "✍️ <b>MASUKKAN USERNAME &amp; PASSWORD</b>\n\n" +
		"📝 <b>Gunakan format:</b>\n<code>/username-password</code>\n\n" +
		"🎯 <b>Contoh:</b>\n<code>/kambing-1</code>\n<code>/player-123</code>\n\n" +
		"➡️ <b>Username</b> sebelum tanda minus (-)\n" +
		"➡️ <b>Password</b> setelah tanda minus (-)"
}

func (r *Renderer) MalformedInput() string {
	return "❌ <b>Format tidak valid!</b>\n\n" + credentialFormatHint
}

func (r *Renderer) UsernameTaken(g licenses.Game, username string) string {
	return fmt.Sprintf("❌ <b>Username sudah digunakan di %s!</b>\n\n", gameTitle(g)) +
		fmt.Sprintf("Username <code>%s</code> sudah terdaftar di <b>%s</b>.\n\n", html.EscapeString(username), gameTitle(g)) +
		"💡 <b>Tips:</b> Gunakan username yang berbeda\n\n" + credentialFormatHint
}

// Payment — сообщение с QR для нового заказа или продления.
func (r *Renderer) Payment(res *payment.CheckoutResult) string {
	o := res.Order
	var sb strings.Builder

	if o.IsExtend() {
		fmt.Fprintf(&sb, "⏰ <b>EXTEND %s</b>\n\n", gameTitle(o.Game))
		fmt.Fprintf(&sb, "Username: <code>%s</code>\n", html.EscapeString(o.ManualUsername))
		fmt.Fprintf(&sb, "Password: <code>%s</code>\n", html.EscapeString(o.ManualPassword))
		fmt.Fprintf(&sb, "Jenis: <b>%s</b>\n", gameTitle(o.Game))
		fmt.Fprintf(&sb, "Durasi: <b>%d Hari</b>\n", o.Duration)
		fmt.Fprintf(&sb, "Harga: <b>%s</b>\n", common.FormatCurrency(o.Amount))
		if res.Current != nil {
			projected := licenses.ExtendExpiry(res.Current.ExpDate, o.CreatedAt, o.Duration)
			fmt.Fprintf(&sb, "Masa Aktif Saat Ini: <b>%s</b>\n", r.date(res.Current.ExpDate))
			fmt.Fprintf(&sb, "Masa Aktif Baru: <b>%s</b>\n", r.date(projected))
		}
	} else {
		fmt.Fprintf(&sb, "💳 <b>PEMBAYARAN %s (%s)</b>\n\n", gameTitle(o.Game), keyTypeTitle(o.KeyType))
		fmt.Fprintf(&sb, "Jenis: <b>%s</b>\n", gameTitle(o.Game))
		fmt.Fprintf(&sb, "Durasi: <b>%d Hari</b>\n", o.Duration)
		fmt.Fprintf(&sb, "Tipe: <b>KEY %s</b>\n", keyTypeTitle(o.KeyType))
		if o.KeyType == orders.KeyManual {
			fmt.Fprintf(&sb, "Username: <code>%s</code>\n", html.EscapeString(o.ManualUsername))
			fmt.Fprintf(&sb, "Password: <code>%s</code>\n", html.EscapeString(o.ManualPassword))
		}
		fmt.Fprintf(&sb, "Harga: <b>%s</b>\n", common.FormatCurrency(o.Amount))
	}
	fmt.Fprintf(&sb, "Order ID: <code>%s</code>\n\n", o.OrderID)

	sb.WriteString("📱 <b>INSTRUKSI PEMBAYARAN:</b>\n")
	sb.WriteString("1. Scan QR Code di bawah\n2. Bayar sesuai amount\n3. Pembayaran akan terdeteksi otomatis\n\n")
	fmt.Fprintf(&sb, "⏰ <b>Batas Waktu: %d MENIT</b>\n", r.timeoutMinutes())
	fmt.Fprintf(&sb, "🔄 <b>Cek Otomatis: Setiap %d detik</b>\n", int(r.catalog.CheckInterval()/time.Second))
	if res.Deposit != nil && res.Deposit.Expired != "" {
		fmt.Fprintf(&sb, "Expired: %s\n", html.EscapeString(res.Deposit.Expired))
	}
	sb.WriteString("\n🚀 <b>Pembayaran akan diproses otomatis!</b>")
	return sb.String()
}

func (r *Renderer) PaymentFailed(extend bool) string {
	if extend {
		return "❌ Gagal membuat pembayaran extend. Silakan coba lagi."
	}
	return "❌ Gagal membuat pembayaran. Silakan coba lagi."
}

func (r *Renderer) StillPending(extend bool, remaining time.Duration) string {
	title, body := "Status Pembayaran", "Pembayaran Anda masih dalam proses."
	if extend {
		title, body = "Status Extend", "Pembayaran extend masih dalam proses."
	}
	return fmt.Sprintf("⏳ <b>%s: PENDING</b>\n\n%s\n\n", title, body) +
		fmt.Sprintf("⏰ <b>Sisa Waktu:</b> %s\n", common.FormatRemaining(remaining)) +
		fmt.Sprintf("🔄 <b>Cek otomatis setiap %d detik</b>\n\n", int(r.catalog.CheckInterval()/time.Second)) +
		"Silakan tunggu beberapa saat dan coba lagi."
}

func (r *Renderer) OrderExpired(extend bool) string {
	if extend {
		return fmt.Sprintf("❌ <b>Pesanan extend telah expired!</b>\n\nPembayaran tidak dilakukan dalam waktu %d menit.", r.timeoutMinutes())
	}
	return fmt.Sprintf("❌ <b>Pesanan telah expired!</b>\n\nPembayaran tidak dilakukan dalam waktu %d menit.\n\nSilakan buat pesanan baru.", r.timeoutMinutes())
}

func (r *Renderer) NoPendingOrder(extend bool) string {
	if extend {
		return "❌ Tidak ada pesanan extend ditemukan."
	}
	return "❌ Tidak ada pesanan pending ditemukan."
}

func (r *Renderer) PaymentReceived() string {
	return "✅ <b>Pembayaran diterima!</b>\n\nDetail akun telah dikirim."
}

func (r *Renderer) FulfillmentDelayed() string {
	return "⚠️ <b>Pembayaran diterima, tetapi pesanan belum dapat diproses.</b>\n\n" +
		"Kami akan mencoba lagi otomatis. Jika masalah berlanjut, hubungi admin " + html.EscapeString(r.support)
}

func (r *Renderer) OrderCancelled() string {
	return "❌ Pesanan dibatalkan."
}

func (r *Renderer) ExtendSelectGame() string {
	return "⏰ <b>EXTEND MASA AKTIF</b>\n\nPilih jenis Free Fire yang ingin di-extend:"
}

func (r *Renderer) ExtendCredentialsPrompt(g licenses.Game) string {
	return fmt.Sprintf("⏰ <b>EXTEND %s</b>\n\n", gameTitle(g)) +
		"Masukkan <b>USERNAME dan PASSWORD</b> yang ingin di-extend:\n\n" +
		"📝 <b>Format:</b>\n<code>/username-password</code>\n\n" +
		"🎯 <b>Contoh:</b>\n<code>/kambing-1</code>\n<code>/player-123</code>\n\n" +
		fmt.Sprintf("⚠️ <b>Pastikan username dan password terdaftar di %s</b>", gameTitle(g))
}

func (r *Renderer) ExtendMatched(c *licenses.Credential, g licenses.Game) string {
	return "✅ <b>USERNAME DAN PASSWORD COCOK!</b>\n\n" +
		fmt.Sprintf("Username: <code>%s</code>\n", html.EscapeString(c.Username)) +
		fmt.Sprintf("Jenis: <b>%s</b>\n", gameTitle(g)) +
		fmt.Sprintf("Masa Aktif Saat Ini: <b>%s</b>\n\n", r.date(c.ExpDate)) +
		"📅 <b>Pilih Durasi Extend:</b>"
}

func (r *Renderer) ExtendMismatch(g licenses.Game, reset bool) string {
	msg := fmt.Sprintf("❌ <b>Username dan Password tidak cocok di %s!</b>\n\n", gameTitle(g))
	if reset {
		return msg + "⚠️ <b>Anda telah 2 kali melakukan kesalahan.</b>\nSilakan mulai ulang dari menu utama.\n\n"
	}
	return msg + "Silakan coba lagi dengan username dan password yang benar:\n\n" + credentialFormatHint
}

func (r *Renderer) SessionExpired() string {
	return "❌ <b>Sesi telah berakhir!</b>\n\nSilakan mulai ulang."
}

func (r *Renderer) RedeemMenu(balance int64) string {
	var sb strings.Builder
	sb.WriteString("🎁 <b>TUKAR POINT</b>\n\n")
	fmt.Fprintf(&sb, "💰 <b>Point Anda:</b> %d points\n\n", balance)
	sb.WriteString("📊 <b>Rate Penukaran:</b>\n")
	for _, d := range r.catalog.RedeemDurations() {
		fmt.Fprintf(&sb, "• %d Hari = %d points\n", d, r.catalog.RedeemCost(d))
	}
	sb.WriteString("\nPilih durasi yang ingin ditukar:")
	return sb.String()
}

func (r *Renderer) NotEnoughPoints(needed, balance int64) string {
	return "❌ <b>Point tidak cukup!</b>\n\n" +
		fmt.Sprintf("Point yang dibutuhkan: <b>%d points</b>\n", needed) +
		fmt.Sprintf("Point Anda: <b>%d points</b>\n\n", balance) +
		"Silakan kumpulkan point lebih banyak dengan melakukan pembelian."
}

func (r *Renderer) RedeemSelectGame(cost int64, days int) string {
	return "🎮 <b>PILIH JENIS GAME</b>\n\n" +
		fmt.Sprintf("Anda akan menukar <b>%d points</b> untuk lisensi <b>%d hari</b>\n\n", cost, days) +
		"Pilih jenis Free Fire:"
}

func (r *Renderer) RedeemFailed() string {
	return "❌ <b>Gagal menukar point!</b>\n\nPoint Anda tidak berkurang. Silakan coba lagi."
}

func (r *Renderer) Redeemed(red *payment.Redemption) string {
	return "🎉 <b>PENUKARAN POINT BERHASIL!</b>\n\n" +
		fmt.Sprintf("Anda berhasil menukar <b>%d points</b>\n", red.Spent) +
		fmt.Sprintf("Untuk lisensi <b>%s</b> selama <b>%d hari</b>\n\n", gameTitle(red.Game), red.Days) +
		"📱 <b>AKUN ANDA:</b>\n" +
		fmt.Sprintf("Username: <code>%s</code>\n", red.Username) +
		fmt.Sprintf("Password: <code>%s</code>\n", red.Password) +
		"Tipe Key: <b>REDEEM (AUTO RANDOM)</b>\n\n" +
		fmt.Sprintf("⏰ <b>MASA AKTIF:</b>\nBerlaku hingga: <b>%s</b>\n\n", r.date(red.ExpiresAt)) +
		fmt.Sprintf("🎮 <b>JENIS GAME:</b> %s\n", gameTitle(red.Game)) +
		fmt.Sprintf("💰 <b>SISA POINT:</b> %d points\n\n", red.Balance) +
		"✨ <b>Selamat bermain!</b> 🎮\n\n" +
		"📁 <b>Untuk file dan tutorial instalasi:</b>\nKlik tombol '📁 File &amp; Cara Pasang' di bawah"
}

func (r *Renderer) AdminRedeemed(chatID int64, red *payment.Redemption, now time.Time) string {
	return "🎁 <b>PENUKARAN POINT BARU!</b>\n\n" +
		fmt.Sprintf("User ID: <code>%d</code>\n", chatID) +
		fmt.Sprintf("Jenis Game: <b>%s</b>\n", gameTitle(red.Game)) +
		fmt.Sprintf("Durasi: <b>%d Hari</b>\n", red.Days) +
		"Tipe Key: <b>REDEEM (AUTO RANDOM)</b>\n" +
		fmt.Sprintf("Username: <code>%s</code>\n", red.Username) +
		fmt.Sprintf("Password: <code>%s</code>\n", red.Password) +
		fmt.Sprintf("Point Ditukar: <b>%d points</b>\n", red.Spent) +
		fmt.Sprintf("Masa Aktif: <b>%s</b>\n", r.date(red.ExpiresAt)) +
		fmt.Sprintf("Waktu: %s", common.FormatDate(now, r.loc))
}

func (r *Renderer) Purchased(f *payment.Fulfillment) string {
	return "🎉 <b>PEMBAYARAN BERHASIL!</b>\n\n" +
		fmt.Sprintf("Terima kasih telah membeli lisensi <b>%s</b>\n", gameTitle(f.Game)) +
		fmt.Sprintf("Durasi: <b>%d Hari</b>\n", f.Days) +
		fmt.Sprintf("Tipe Key: <b>%s</b>\n\n", keyTypeTitle(f.KeyType)) +
		"📱 <b>AKUN ANDA:</b>\n" +
		fmt.Sprintf("Username: <code>%s</code>\n", html.EscapeString(f.Username)) +
		fmt.Sprintf("Password: <code>%s</code>\n\n", html.EscapeString(f.Password)) +
		fmt.Sprintf("⏰ <b>MASA AKTIF:</b>\nBerlaku hingga: <b>%s</b>\n\n", r.date(f.NewExpiry)) +
		"🎁 <b>REWARD POINT:</b>\n" +
		fmt.Sprintf("Anda mendapatkan <b>%d points</b>\n", f.Points) +
		fmt.Sprintf("Total point Anda: <b>%d points</b>\n\n", f.Balance) +
		"✨ <b>Selamat bermain!</b> 🎮\n\n" +
		"📁 <b>Untuk file dan tutorial instalasi:</b>\nKlik tombol '📁 File &amp; Cara Pasang' di bawah"
}

func (r *Renderer) Extended(f *payment.Fulfillment) string {
	return "🎉 <b>EXTEND BERHASIL!</b>\n\n" +
		"Akun Anda berhasil di-extend\n" +
		fmt.Sprintf("Jenis: <b>%s</b>\n", gameTitle(f.Game)) +
		fmt.Sprintf("Username: <code>%s</code>\n", html.EscapeString(f.Username)) +
		fmt.Sprintf("Durasi Tambahan: <b>%d Hari</b>\n", f.Days) +
		fmt.Sprintf("Masa Aktif Lama: <b>%s</b>\n", r.date(f.OldExpiry)) +
		fmt.Sprintf("Masa Aktif Baru: <b>%s</b>\n\n", r.date(f.NewExpiry)) +
		"🎁 <b>REWARD POINT:</b>\n" +
		fmt.Sprintf("Anda mendapatkan <b>%d points</b>\n", f.Points) +
		fmt.Sprintf("Total point Anda: <b>%d points</b>\n\n", f.Balance) +
		"✨ <b>Selamat bermain!</b> 🎮\n\n" +
		"📁 <b>Untuk file dan tutorial instalasi:</b>\nKlik tombol '📁 File &amp; Cara Pasang' di bawah"
}

func (r *Renderer) AdminCompleted(o *orders.Order, f *payment.Fulfillment, now time.Time) string {
	if o.IsExtend() {
		return "⏰ <b>EXTEND BERHASIL!</b>\n\n" +
			fmt.Sprintf("User ID: <code>%d</code>\n", o.ChatID) +
			fmt.Sprintf("Jenis Game: <b>%s</b>\n", gameTitle(f.Game)) +
			fmt.Sprintf("Username: <code>%s</code>\n", html.EscapeString(f.Username)) +
			fmt.Sprintf("Durasi: <b>%d Hari</b>\n", f.Days) +
			fmt.Sprintf("Point Diberikan: <b>%d points</b>\n", f.Points) +
			fmt.Sprintf("Masa Aktif Baru: <b>%s</b>\n", r.date(f.NewExpiry)) +
			fmt.Sprintf("Waktu: %s", common.FormatDate(now, r.loc))
	}
	return "💰 <b>PEMBELIAN BERHASIL!</b>\n\n" +
		fmt.Sprintf("User ID: <code>%d</code>\n", o.ChatID) +
		fmt.Sprintf("Order ID: <code>%s</code>\n", o.OrderID) +
		fmt.Sprintf("Jenis Game: <b>%s</b>\n", gameTitle(f.Game)) +
		fmt.Sprintf("Durasi: <b>%d Hari</b>\n", f.Days) +
		fmt.Sprintf("Tipe Key: <b>%s</b>\n", keyTypeTitle(f.KeyType)) +
		fmt.Sprintf("Username: <code>%s</code>\n", html.EscapeString(f.Username)) +
		fmt.Sprintf("Password: <code>%s</code>\n", html.EscapeString(f.Password)) +
		fmt.Sprintf("Point Diberikan: <b>%d points</b>\n", f.Points) +
		fmt.Sprintf("Masa Aktif: <b>%s</b>\n", r.date(f.NewExpiry)) +
		fmt.Sprintf("Waktu: %s", common.FormatDate(now, r.loc))
}

func (r *Renderer) GenericError() string {
	return "❌ <b>Terjadi kesalahan!</b>\n\nSilakan coba lagi atau gunakan /start"
}

