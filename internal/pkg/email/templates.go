package email

// BaseTemplate wraps every message in the shared layout
const BaseTemplate = `
<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:0;background:#f5f5f7;font-family:Arial,Helvetica,sans-serif;">
  <div style="max-width:560px;margin:24px auto;background:#ffffff;border-radius:8px;padding:32px;">
    <div style="font-size:20px;font-weight:bold;color:#111;margin-bottom:24px;">ReelForge</div>
    {{.Content}}
    <div style="margin-top:32px;font-size:12px;color:#888;">
      You are receiving this email because you have an account on ReelForge.
    </div>
  </div>
</body>
</html>
`

// VerificationTemplate carries the one-time login/registration code
const VerificationTemplate = `
<p>Hi {{.UserName}},</p>
<p>Your verification code is:</p>
<p style="font-size:28px;letter-spacing:6px;font-weight:bold;">{{.Code}}</p>
<p>The code expires in 10 minutes. If you didn't request it, ignore this email.</p>
`

// PurchaseCompletedTemplate confirms a credit package purchase
const PurchaseCompletedTemplate = `
<p>Hi {{.UserName}},</p>
<p>Your purchase of <b>{{.PackageName}}</b> is complete. {{.Credits}} credits were added to your account.</p>
<p>Happy creating!</p>
`

// GenerationFailedTemplate notifies about a refunded failed job
const GenerationFailedTemplate = `
<p>Hi {{.UserName}},</p>
<p>Unfortunately your video generation could not be completed. The {{.Credits}} credits spent on it were refunded to your account.</p>
`

// WelcomeTemplate greets a newly registered user
const WelcomeTemplate = `
<p>Hi {{.UserName}},</p>
<p>Welcome to ReelForge! Your account is ready — you can start generating videos right away.</p>
`
